package eval

import (
	"regexp"
	"strings"
)

// Tool call sites recognized in generated code. Code agents invoke
// tools as plain functions, so usage has to be read from the source.
var codeToolPatterns = map[string]*regexp.Regexp{
	"get_weather":      regexp.MustCompile(`get_weather\s*\(`),
	"calculator":       regexp.MustCompile(`calculator\s*\(`),
	"get_current_time": regexp.MustCompile(`get_current_time\s*\(`),
	"web_search":       regexp.MustCompile(`web_search\s*\(`),
}

var finalAnswerPattern = regexp.MustCompile(`\bfinal_answer\s*\(`)

// ExtractToolsFromCode returns one entry per recognized tool call site
// in the given source.
func ExtractToolsFromCode(code string) []string {
	var tools []string
	for name, pattern := range codeToolPatterns {
		for range pattern.FindAllString(code, -1) {
			tools = append(tools, name)
		}
	}
	return tools
}

// scoreOutcome fills the behavior flags of an outcome from the agent's
// response. Success requires a tool call, the right tool, a final
// answer, and a correct response.
func scoreOutcome(tc TestCase, agentType string, resp *InvokeResponse, outcome *TestOutcome) {
	tools := append([]string(nil), resp.ToolsUsed...)
	if agentType == AgentTypeCode && resp.Code != "" {
		tools = append(tools, ExtractToolsFromCode(resp.Code)...)
		if !resp.FinalAnswerCalled && finalAnswerPattern.MatchString(resp.Code) {
			outcome.FinalAnswerCalled = true
		}
	}
	if resp.FinalAnswerCalled {
		outcome.FinalAnswerCalled = true
	}

	outcome.Response = resp.Response
	outcome.ToolsUsed = tools
	outcome.ToolCalled = len(tools) > 0
	outcome.Steps = resp.Steps
	outcome.CorrectTool = correctTool(tc, tools)
	outcome.ResponseCorrect = responseCorrect(tc.ExpectedKeywords, resp.Response)
	outcome.Success = outcome.ToolCalled &&
		outcome.CorrectTool &&
		outcome.FinalAnswerCalled &&
		outcome.ResponseCorrect
}

// correctTool checks tool usage against the expectation. "multiple"
// requires at least the expected number of calls to any tools; a named
// tool requires that many calls to it specifically. No expectation
// falls back to any tool having been called.
func correctTool(tc TestCase, tools []string) bool {
	switch {
	case tc.ExpectedTool == "multiple":
		want := tc.ExpectedToolCalls
		if want == 0 {
			want = 1
		}
		return len(tools) >= want
	case tc.ExpectedTool != "":
		count := 0
		for _, tool := range tools {
			if tool == tc.ExpectedTool {
				count++
			}
		}
		if tc.ExpectedToolCalls > 0 {
			return count >= tc.ExpectedToolCalls
		}
		return count > 0
	default:
		return len(tools) > 0
	}
}

// responseCorrect applies the keyword check: any expected keyword
// appearing in the response, case-insensitive. No keywords means no
// validation and the response passes.
func responseCorrect(keywords []string, response string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(response)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
