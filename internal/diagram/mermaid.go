// Package diagram renders traces as Mermaid flowcharts for sharing in
// markdown reports.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TyphonHill/go-mermaid/diagrams/flowchart"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

// spanKind loosely classifies a span for node shape and styling.
type spanKind string

const (
	kindEvaluation spanKind = "evaluation"
	kindLLM        spanKind = "llm"
	kindTool       spanKind = "tool"
	kindOther      spanKind = "other"
)

// FromTrace creates a Mermaid flowchart of the trace's span hierarchy.
// Roots link to their children in start order; siblings under the same
// parent are chained to read as an execution sequence.
func FromTrace(tr *telemetry.Trace) string {
	spans := append([]telemetry.Span(nil), tr.Spans...)
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].StartTime < spans[j].StartTime
	})

	diagram := flowchart.NewFlowchart()
	diagram.EnableMarkdownFence()
	diagram.SetDirection(flowchart.FlowchartDirectionTopDown)

	nodes := make(map[string]*flowchart.Node, len(spans))
	for _, span := range spans {
		kind := classifySpan(span)
		node := diagram.AddNode(nodeLabel(span, kind))
		applyShape(node, kind)
		if style := nodeStyle(kind); style != nil {
			node.SetStyle(style)
		}
		nodes[span.SpanID] = node
	}

	children := make(map[string][]telemetry.Span)
	for _, span := range spans {
		if span.ParentSpanID != "" {
			children[span.ParentSpanID] = append(children[span.ParentSpanID], span)
		}
	}

	for _, span := range spans {
		group := children[span.SpanID]
		if len(group) == 0 {
			continue
		}
		parent := nodes[span.SpanID]
		diagram.AddLink(parent, nodes[group[0].SpanID])
		for i := 0; i < len(group)-1; i++ {
			diagram.AddLink(nodes[group[i].SpanID], nodes[group[i+1].SpanID])
		}
	}

	return diagram.String()
}

func classifySpan(span telemetry.Span) spanKind {
	name := strings.ToLower(span.Name)
	switch {
	case name == "test_evaluation":
		return kindEvaluation
	case strings.Contains(name, "llm") || strings.Contains(name, "model"):
		return kindLLM
	case strings.Contains(name, "tool"):
		return kindTool
	default:
		if _, ok := span.Attributes[telemetry.AttrTokenCount]; ok {
			return kindLLM
		}
		return kindOther
	}
}

func nodeLabel(span telemetry.Span, kind spanKind) string {
	desc := span.Name
	if kind == kindEvaluation {
		if testID, ok := span.Attributes["test.id"].(string); ok && testID != "" {
			desc = "test:" + testID
		}
	}
	if len(desc) > 60 {
		desc = desc[:57] + "..."
	}

	duration := ""
	if span.DurationMs > 0 {
		duration = fmt.Sprintf("<br/>%.0fms", span.DurationMs)
	}

	return fmt.Sprintf("%s %s%s", kindIcon(kind), desc, duration)
}

func kindIcon(kind spanKind) string {
	switch kind {
	case kindEvaluation:
		return "🧪"
	case kindLLM:
		return "🤖"
	case kindTool:
		return "🔧"
	default:
		return "○"
	}
}

func applyShape(node *flowchart.Node, kind spanKind) {
	switch kind {
	case kindEvaluation:
		node.SetShape(flowchart.NodeShapeTerminal)
	case kindLLM:
		node.SetShape(flowchart.NodeShapeDecision)
	case kindTool:
		node.SetShape(flowchart.NodeShapeSubprocess)
	default:
		node.SetShape(flowchart.NodeShapeProcess)
	}
}

func nodeStyle(kind spanKind) *flowchart.NodeStyle {
	style := flowchart.NewNodeStyle()
	style.StrokeWidth = 1

	switch kind {
	case kindEvaluation:
		style.Fill = "#e1f5fe"
		style.Stroke = "#01579b"
	case kindLLM:
		style.Fill = "#f3e5f5"
		style.Stroke = "#4a148c"
	case kindTool:
		style.Fill = "#e8f5e9"
		style.Stroke = "#1b5e20"
	default:
		return nil
	}

	return style
}
