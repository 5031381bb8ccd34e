package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/smoltrace/smoltrace/internal/utils"
)

// DefaultTestCases are the built-in cases used when no suite file is
// given.
var DefaultTestCases = []TestCase{
	{
		ID:                "tool_weather_single",
		Prompt:            "What's the weather in Paris, France?",
		ExpectedTool:      "get_weather",
		ExpectedToolCalls: 1,
		Difficulty:        "easy",
		AgentType:         AgentTypeTool,
	},
	{
		ID:                "tool_weather_compare",
		Prompt:            "Compare the weather in Paris, France and London, UK. Which one is warmer?",
		ExpectedTool:      "get_weather",
		ExpectedToolCalls: 2,
		Difficulty:        "medium",
		AgentType:         AgentTypeTool,
	},
	{
		ID:                "code_calculator_single",
		Prompt:            "What is 234 multiplied by 67?",
		ExpectedTool:      "calculator",
		ExpectedToolCalls: 1,
		Difficulty:        "easy",
		AgentType:         AgentTypeCode,
	},
}

// ParseSuiteFile parses a YAML test file into a TestSuite
func ParseSuiteFile(filePath string) (*TestSuite, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &suite, nil
}

// PromptConfig carries optional prompt overrides passed through to the
// agent target.
type PromptConfig map[string]any

// LoadPromptConfig loads prompt overrides from a YAML file. A missing
// path yields nil without error.
func LoadPromptConfig(filePath string) (PromptConfig, error) {
	if filePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}
	return cfg, nil
}

// FilterTests selects the cases that apply to an agent type, optionally
// narrowed to one difficulty.
func FilterTests(cases []TestCase, agentType, difficulty string) []TestCase {
	var out []TestCase
	for _, tc := range cases {
		if !tc.AppliesTo(agentType) {
			continue
		}
		if difficulty != "" && tc.Difficulty != difficulty {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// validateSuite validates the test suite structure. Failures are
// ValidationErrors naming the offending YAML field.
func validateSuite(suite *TestSuite) error {
	if suite.Name == "" {
		return utils.NewValidationError("name", "suite name is required")
	}

	if suite.Target.Type == "" {
		return utils.NewValidationError("target.type", "target type is required")
	}

	if suite.Target.Type == "http" && suite.Target.URL == "" {
		return utils.NewValidationError("target.url", "target URL is required for HTTP targets")
	}

	if len(suite.Tests) == 0 {
		return utils.NewValidationError("tests", "at least one test is required")
	}

	seen := make(map[string]bool)
	for i, tc := range suite.Tests {
		field := fmt.Sprintf("tests[%d]", i)
		if tc.ID == "" {
			return utils.NewValidationError(field+".id", "id is required")
		}
		if seen[tc.ID] {
			return utils.NewValidationError(field+".id", fmt.Sprintf("duplicate id %q", tc.ID))
		}
		seen[tc.ID] = true

		if tc.Prompt == "" {
			return utils.NewValidationError(field+".prompt", fmt.Sprintf("test %q: prompt is required", tc.ID))
		}
		if tc.Difficulty == "" {
			return utils.NewValidationError(field+".difficulty", fmt.Sprintf("test %q: difficulty is required", tc.ID))
		}
		switch tc.AgentType {
		case AgentTypeTool, AgentTypeCode, AgentTypeBoth:
		default:
			return utils.NewValidationError(field+".agent_type", fmt.Sprintf("test %q: agent_type must be tool, code, or both", tc.ID))
		}
	}

	return nil
}
