package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

// SpanNode represents a span in the hierarchical tree
type SpanNode struct {
	Span     telemetry.Span
	Children []*SpanNode
	Depth    int
	Expanded bool
	Parent   *SpanNode
}

// BuildSpanTree builds a hierarchical tree from a flat span list.
// Spans whose parent is not in the set become roots.
func BuildSpanTree(spans []telemetry.Span) []*SpanNode {
	nodeMap := make(map[string]*SpanNode, len(spans))
	order := make([]*SpanNode, 0, len(spans))
	for i := range spans {
		node := &SpanNode{
			Span:     spans[i],
			Expanded: true,
		}
		nodeMap[spans[i].SpanID] = node
		order = append(order, node)
	}

	var roots []*SpanNode
	for _, node := range order {
		parentID := node.Span.ParentSpanID
		if parentID == "" {
			roots = append(roots, node)
		} else if parent, ok := nodeMap[parentID]; ok {
			node.Parent = parent
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	for _, root := range roots {
		setDepths(root, 0)
	}
	sortNodesByTime(roots)

	return roots
}

func setDepths(node *SpanNode, depth int) {
	node.Depth = depth
	sortNodesByTime(node.Children)
	for _, child := range node.Children {
		setDepths(child, depth+1)
	}
}

func sortNodesByTime(nodes []*SpanNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Span.StartTime < nodes[j].Span.StartTime
	})
}

// FlattenTree returns a flat list of visible nodes for display
func FlattenTree(roots []*SpanNode) []*SpanNode {
	var result []*SpanNode
	for _, root := range roots {
		flattenNode(root, &result)
	}
	return result
}

func flattenNode(node *SpanNode, result *[]*SpanNode) {
	*result = append(*result, node)
	if node.Expanded {
		for _, child := range node.Children {
			flattenNode(child, result)
		}
	}
}

// HasChildren returns true if the span has children
func (n *SpanNode) HasChildren() bool {
	return len(n.Children) > 0
}

// ToggleExpanded toggles the expanded state
func (n *SpanNode) ToggleExpanded() {
	n.Expanded = !n.Expanded
}

// FriendlyName returns a display label for a span, preferring the test
// ID on evaluation spans and token counts on model spans.
func FriendlyName(span telemetry.Span) string {
	name := strings.ToLower(span.Name)

	if strings.Contains(name, "evaluation") {
		if id, ok := span.Attributes[telemetry.AttrTestID]; ok {
			return fmt.Sprintf("🧪 %v", id)
		}
		return "🧪 " + span.Name
	}
	if strings.Contains(name, "llm") || strings.Contains(name, "model") {
		if tokens, ok := span.Attributes[telemetry.AttrTokenCount]; ok {
			return fmt.Sprintf("🤖 %s [%v tok]", span.Name, tokens)
		}
		return "🤖 " + span.Name
	}
	if strings.Contains(name, "tool") {
		return "🔧 " + span.Name
	}
	return span.Name
}
