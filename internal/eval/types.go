// Package eval runs agent test suites against an HTTP target and
// scores each test from the agent's observed behavior.
package eval

import (
	"strings"
	"time"
)

// Agent types a test case can apply to.
const (
	AgentTypeTool = "tool"
	AgentTypeCode = "code"
	AgentTypeBoth = "both"
)

// TestSuite represents a collection of test cases
type TestSuite struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Target      Target            `yaml:"target"`
	Tests       []TestCase        `yaml:"tests"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

// Target defines where tests will be executed
type Target struct {
	Type string `yaml:"type"` // http
	URL  string `yaml:"url"`  // Base URL for HTTP targets
}

// TestCase represents a single test case
type TestCase struct {
	ID                string   `yaml:"id" json:"id"`
	Prompt            string   `yaml:"prompt" json:"prompt"`
	ExpectedTool      string   `yaml:"expected_tool,omitempty" json:"expected_tool,omitempty"`
	ExpectedToolCalls int      `yaml:"expected_tool_calls,omitempty" json:"expected_tool_calls,omitempty"`
	ExpectedKeywords  []string `yaml:"expected_keywords,omitempty" json:"expected_keywords,omitempty"`
	Difficulty        string   `yaml:"difficulty" json:"difficulty"`
	AgentType         string   `yaml:"agent_type" json:"agent_type"`
}

// AppliesTo reports whether the case runs under the given agent type.
// Cases marked "both" run under every type.
func (tc TestCase) AppliesTo(agentType string) bool {
	return tc.AgentType == agentType || tc.AgentType == AgentTypeBoth
}

// TestOutcome is the scored result of one test under one agent type.
// Success is the conjunction of the four behavior flags.
type TestOutcome struct {
	TestID            string   `json:"test_id"`
	AgentType         string   `json:"agent_type"`
	Difficulty        string   `json:"difficulty"`
	Prompt            string   `json:"prompt"`
	Success           bool     `json:"success"`
	ToolCalled        bool     `json:"tool_called"`
	CorrectTool       bool     `json:"correct_tool"`
	FinalAnswerCalled bool     `json:"final_answer_called"`
	ResponseCorrect   bool     `json:"response_correct"`
	Error             string   `json:"error,omitempty"`
	Response          string   `json:"response,omitempty"`
	ToolsUsed         []string `json:"tools_used"`
	Steps             int      `json:"steps"`
	DurationMs        float64  `json:"duration_ms"`
	TraceID           string   `json:"trace_id,omitempty"`
	RunID             string   `json:"run_id,omitempty"`
	TestIndex         int      `json:"test_index"`
}

// ResultSet holds outcomes grouped by agent type in run order.
type ResultSet struct {
	RunID     string
	Model     string
	StartTime time.Time
	EndTime   time.Time

	ByAgentType map[string][]TestOutcome
}

// NewResultSet creates an empty result set for a run.
func NewResultSet(runID, model string) *ResultSet {
	return &ResultSet{
		RunID:       runID,
		Model:       model,
		ByAgentType: make(map[string][]TestOutcome),
	}
}

// Filter returns outcomes for one agent type, or the tool+code union
// for "both". The lookup is case-insensitive; outcomes are always
// stored under the lowercase agent type constants.
func (rs *ResultSet) Filter(agentType string) []TestOutcome {
	agentType = strings.ToLower(agentType)
	if agentType == AgentTypeBoth {
		out := make([]TestOutcome, 0, len(rs.ByAgentType[AgentTypeTool])+len(rs.ByAgentType[AgentTypeCode]))
		out = append(out, rs.ByAgentType[AgentTypeTool]...)
		out = append(out, rs.ByAgentType[AgentTypeCode]...)
		return out
	}
	return rs.ByAgentType[agentType]
}

// All returns every outcome across agent types.
func (rs *ResultSet) All() []TestOutcome {
	return rs.Filter(AgentTypeBoth)
}

// SuccessLookup maps each test ID to its success flag, for joining
// outcomes against trace spans.
func (rs *ResultSet) SuccessLookup() map[string]bool {
	lookup := make(map[string]bool)
	for _, outcomes := range rs.ByAgentType {
		for _, o := range outcomes {
			lookup[o.TestID] = o.Success
		}
	}
	return lookup
}

// Total counts all outcomes.
func (rs *ResultSet) Total() int {
	n := 0
	for _, outcomes := range rs.ByAgentType {
		n += len(outcomes)
	}
	return n
}

// Successful counts passing outcomes.
func (rs *ResultSet) Successful() int {
	n := 0
	for _, outcomes := range rs.ByAgentType {
		for _, o := range outcomes {
			if o.Success {
				n++
			}
		}
	}
	return n
}

// SuccessRate returns the pass rate as a percentage.
func (rs *ResultSet) SuccessRate() float64 {
	total := rs.Total()
	if total == 0 {
		return 0
	}
	return float64(rs.Successful()) / float64(total) * 100
}
