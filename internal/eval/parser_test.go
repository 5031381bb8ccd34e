package eval

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smoltrace/smoltrace/internal/utils"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseSuiteFile(t *testing.T) {
	path := writeSuite(t, `
name: weather-suite
target:
  type: http
  url: http://localhost:8080
tests:
  - id: tool_weather_single
    prompt: "What's the weather in Paris?"
    expected_tool: get_weather
    expected_tool_calls: 1
    expected_keywords: ["paris"]
    difficulty: easy
    agent_type: tool
  - id: shared_case
    prompt: "What time is it?"
    difficulty: easy
    agent_type: both
`)

	suite, err := ParseSuiteFile(path)
	if err != nil {
		t.Fatalf("ParseSuiteFile() error = %v", err)
	}
	if suite.Name != "weather-suite" {
		t.Errorf("Name = %q", suite.Name)
	}
	if len(suite.Tests) != 2 {
		t.Fatalf("got %d tests, want 2", len(suite.Tests))
	}
	tc := suite.Tests[0]
	if tc.ExpectedTool != "get_weather" || tc.ExpectedToolCalls != 1 {
		t.Errorf("tool expectation = %q/%d", tc.ExpectedTool, tc.ExpectedToolCalls)
	}
	if len(tc.ExpectedKeywords) != 1 || tc.ExpectedKeywords[0] != "paris" {
		t.Errorf("keywords = %v", tc.ExpectedKeywords)
	}
}

func TestParseSuiteFileValidation(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{
			name: "missing name",
			content: `
target: {type: http, url: http://x}
tests:
  - {id: a, prompt: p, difficulty: easy, agent_type: tool}
`,
			wantField: "name",
		},
		{
			name: "missing target url",
			content: `
name: s
target: {type: http}
tests:
  - {id: a, prompt: p, difficulty: easy, agent_type: tool}
`,
			wantField: "target.url",
		},
		{
			name: "no tests",
			content: `
name: s
target: {type: http, url: http://x}
tests: []
`,
			wantField: "tests",
		},
		{
			name: "duplicate id",
			content: `
name: s
target: {type: http, url: http://x}
tests:
  - {id: a, prompt: p, difficulty: easy, agent_type: tool}
  - {id: a, prompt: q, difficulty: easy, agent_type: tool}
`,
			wantField: "tests[1].id",
		},
		{
			name: "bad agent type",
			content: `
name: s
target: {type: http, url: http://x}
tests:
  - {id: a, prompt: p, difficulty: easy, agent_type: robot}
`,
			wantField: "tests[0].agent_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSuite(t, tt.content)
			_, err := ParseSuiteFile(path)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr *utils.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error should be a ValidationError, got %T: %v", err, err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestFilterTests(t *testing.T) {
	cases := []TestCase{
		{ID: "t1", AgentType: AgentTypeTool, Difficulty: "easy"},
		{ID: "t2", AgentType: AgentTypeTool, Difficulty: "hard"},
		{ID: "c1", AgentType: AgentTypeCode, Difficulty: "easy"},
		{ID: "b1", AgentType: AgentTypeBoth, Difficulty: "easy"},
	}

	tests := []struct {
		name       string
		agentType  string
		difficulty string
		wantIDs    []string
	}{
		{"tool all difficulties", AgentTypeTool, "", []string{"t1", "t2", "b1"}},
		{"tool easy only", AgentTypeTool, "easy", []string{"t1", "b1"}},
		{"code", AgentTypeCode, "", []string{"c1", "b1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTests(cases, tt.agentType, tt.difficulty)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d cases, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("case %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestLoadPromptConfigMissing(t *testing.T) {
	cfg, err := LoadPromptConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Errorf("missing file must not error, got %v", err)
	}
	if cfg != nil {
		t.Errorf("cfg = %v, want nil", cfg)
	}
}

func TestLoadPromptConfig(t *testing.T) {
	path := writeSuite(t, "system_prompt: be brief\nmax_tokens: 512\n")
	cfg, err := LoadPromptConfig(path)
	if err != nil {
		t.Fatalf("LoadPromptConfig() error = %v", err)
	}
	if cfg["system_prompt"] != "be brief" {
		t.Errorf("system_prompt = %v", cfg["system_prompt"])
	}
}
