package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// Reporter generates evaluation reports in various formats
type Reporter struct {
	format string
}

// NewReporter creates a new reporter
func NewReporter(format string) *Reporter {
	return &Reporter{format: format}
}

// Generate creates a report and writes it to the writer
func (r *Reporter) Generate(results *ResultSet, w io.Writer) error {
	switch r.format {
	case "console":
		return r.generateConsole(results, w)
	case "json":
		return r.generateJSON(results, w)
	case "markdown":
		return r.generateMarkdown(results, w)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// generateConsole creates a human-readable console report
func (r *Reporter) generateConsole(results *ResultSet, w io.Writer) error {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  EVALUATION RESULTS: %s\n", results.Model)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Run ID:         %s\n", results.RunID)
	fmt.Fprintf(w, "Total Tests:    %d\n", results.Total())
	fmt.Fprintf(w, "Passed:         %d ✓\n", results.Successful())
	fmt.Fprintf(w, "Failed:         %d ✗\n", results.Total()-results.Successful())
	fmt.Fprintf(w, "Success Rate:   %.1f%%\n", results.SuccessRate())
	fmt.Fprintf(w, "Duration:       %s\n", results.EndTime.Sub(results.StartTime).Round(10*time.Millisecond))
	fmt.Fprintf(w, "\n")

	for _, agentType := range []string{AgentTypeTool, AgentTypeCode} {
		outcomes := results.ByAgentType[agentType]
		if len(outcomes) == 0 {
			continue
		}
		successful := 0
		for _, o := range outcomes {
			if o.Success {
				successful++
			}
		}
		fmt.Fprintf(w, "%s: %d/%d (%.1f%%)\n", agentType, successful, len(outcomes),
			float64(successful)/float64(len(outcomes))*100)
	}
	fmt.Fprintf(w, "\n")

	failed := 0
	for _, o := range results.All() {
		if !o.Success {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(w, "───────────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "  FAILED TESTS\n")
		fmt.Fprintf(w, "───────────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "\n")

		for _, o := range results.All() {
			if o.Success {
				continue
			}
			fmt.Fprintf(w, "✗ %s [%s]\n", o.TestID, o.AgentType)
			fmt.Fprintf(w, "  Reason: %s\n", failureReason(o))
			if o.TraceID != "" {
				fmt.Fprintf(w, "  Trace ID: %s\n", o.TraceID)
				fmt.Fprintf(w, "  💡 View detailed trace: smoltrace trace show %s\n", o.TraceID)
			}
			if o.Response != "" {
				fmt.Fprintf(w, "  Response:\n    %s\n", truncate(o.Response, 200))
			}
			fmt.Fprintf(w, "\n")
		}
	}

	fmt.Fprintf(w, "───────────────────────────────────────────────────────────────\n")
	if failed == 0 {
		fmt.Fprintf(w, "  ✓ ALL TESTS PASSED\n")
	} else {
		fmt.Fprintf(w, "  ✗ SOME TESTS FAILED\n")
	}
	fmt.Fprintf(w, "───────────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "\n")

	return nil
}

// generateJSON creates a JSON report of the flat outcome list
func (r *Reporter) generateJSON(results *ResultSet, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results.All())
}

const markdownTemplate = `# Evaluation Report: {{ .Model }}

- **Run ID**: {{ .RunID }}
- **Date**: {{ .StartTime.Format "2006-01-02 15:04:05" }}
- **Total tests**: {{ .Total }}
- **Passed**: {{ .Successful }}
- **Success rate**: {{ printf "%.1f" .SuccessRate }}%

## Results

| Test | Agent | Difficulty | Tool Called | Correct Tool | Final Answer | Response | Steps | Success |
|------|-------|------------|-------------|--------------|--------------|----------|-------|---------|
{{- range .All }}
| {{ .TestID }} | {{ .AgentType }} | {{ .Difficulty }} | {{ .ToolCalled | ternary "✓" "✗" }} | {{ .CorrectTool | ternary "✓" "✗" }} | {{ .FinalAnswerCalled | ternary "✓" "✗" }} | {{ .ResponseCorrect | ternary "✓" "✗" }} | {{ .Steps }} | {{ .Success | ternary "✓" "✗" }} |
{{- end }}

## Failures
{{- $failed := false }}
{{- range .All }}
{{- if not .Success }}
{{- $failed = true }}

### {{ .TestID }} ({{ .AgentType }})

- Prompt: {{ .Prompt }}
{{- if .Error }}
- Error: {{ .Error }}
{{- end }}
{{- if .ToolsUsed }}
- Tools used: {{ .ToolsUsed | join ", " }}
{{- end }}
{{- if .Response }}
- Response: {{ .Response | trunc 200 }}
{{- end }}
{{- end }}
{{- end }}
{{- if not $failed }}

None.
{{- end }}
`

// generateMarkdown renders the markdown report template
func (r *Reporter) generateMarkdown(results *ResultSet, w io.Writer) error {
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	if err := tmpl.Execute(w, results); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
