package diagram

import (
	"strings"
	"testing"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

func TestFromTrace(t *testing.T) {
	tr := &telemetry.Trace{
		TraceID: "abc123",
		Spans: []telemetry.Span{
			{
				TraceID:    "abc123",
				SpanID:     "root",
				Name:       "test_evaluation",
				StartTime:  100,
				DurationMs: 1500,
				Attributes: map[string]any{"test.id": "tool_weather_single"},
			},
			{
				TraceID:      "abc123",
				SpanID:       "llm1",
				ParentSpanID: "root",
				Name:         "llm.call",
				StartTime:    200,
				Attributes:   map[string]any{},
			},
			{
				TraceID:      "abc123",
				SpanID:       "tool1",
				ParentSpanID: "root",
				Name:         "tool.get_weather",
				StartTime:    300,
				Attributes:   map[string]any{},
			},
		},
	}

	out := FromTrace(tr)

	if !strings.Contains(out, "```mermaid") {
		t.Error("output is not fenced mermaid markdown")
	}
	if !strings.Contains(out, "test:tool_weather_single") {
		t.Error("evaluation node missing test id label")
	}
	if !strings.Contains(out, "1500ms") {
		t.Error("evaluation node missing duration")
	}
	if !strings.Contains(out, "tool.get_weather") {
		t.Error("tool node missing")
	}
}

func TestClassifySpan(t *testing.T) {
	tests := []struct {
		name string
		span telemetry.Span
		want spanKind
	}{
		{"evaluation", telemetry.Span{Name: "test_evaluation"}, kindEvaluation},
		{"llm by name", telemetry.Span{Name: "llm.completion"}, kindLLM},
		{"tool by name", telemetry.Span{Name: "tool.calculator"}, kindTool},
		{
			"llm by token attribute",
			telemetry.Span{
				Name:       "generate",
				Attributes: map[string]any{telemetry.AttrTokenCount: int64(10)},
			},
			kindLLM,
		},
		{"other", telemetry.Span{Name: "setup"}, kindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySpan(tt.span); got != tt.want {
				t.Errorf("classifySpan() = %q, want %q", got, tt.want)
			}
		})
	}
}
