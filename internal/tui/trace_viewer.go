package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

const (
	minDetailWidth = 40
	headerHeight   = 3
	helpHeight     = 1
)

// Model is the bubbletea model for browsing one run's traces.
type Model struct {
	runID  string
	traces []*telemetry.Trace

	traceIdx int
	roots    []*SpanNode
	visible  []*SpanNode
	cursor   int

	width  int
	height int
	ready  bool

	detail viewport.Model
}

// NewTraceViewer creates a viewer over the traces of a single run.
func NewTraceViewer(runID string, traces []*telemetry.Trace) Model {
	m := Model{
		runID:  runID,
		traces: traces,
	}
	m.loadTrace(0)
	return m
}

func (m *Model) loadTrace(index int) {
	if len(m.traces) == 0 {
		return
	}
	if index < 0 {
		index = len(m.traces) - 1
	}
	if index >= len(m.traces) {
		index = 0
	}
	m.traceIdx = index
	m.roots = BuildSpanTree(m.traces[index].Spans)
	m.visible = FlattenTree(m.roots)
	m.cursor = 0
	m.refreshDetail()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		detailWidth := m.width/2 - 4
		if detailWidth < minDetailWidth {
			detailWidth = minDetailWidth
		}
		contentHeight := m.height - headerHeight - helpHeight - 2
		if contentHeight < 4 {
			contentHeight = 4
		}
		if !m.ready {
			m.detail = viewport.New(detailWidth, contentHeight)
			m.ready = true
		} else {
			m.detail.Width = detailWidth
			m.detail.Height = contentHeight
		}
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.refreshDetail()
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
				m.refreshDetail()
			}
		case "g":
			m.cursor = 0
			m.refreshDetail()
		case "G":
			if len(m.visible) > 0 {
				m.cursor = len(m.visible) - 1
				m.refreshDetail()
			}

		case "enter", " ":
			if node := m.selected(); node != nil && node.HasChildren() {
				node.ToggleExpanded()
				m.visible = FlattenTree(m.roots)
			}
		case "left", "h":
			if node := m.selected(); node != nil {
				if node.Expanded && node.HasChildren() {
					node.Expanded = false
					m.visible = FlattenTree(m.roots)
				} else if node.Parent != nil {
					m.moveCursorTo(node.Parent)
				}
			}
		case "right", "l":
			if node := m.selected(); node != nil && node.HasChildren() && !node.Expanded {
				node.Expanded = true
				m.visible = FlattenTree(m.roots)
			}

		case "tab", "]":
			m.loadTrace(m.traceIdx + 1)
		case "shift+tab", "[":
			m.loadTrace(m.traceIdx - 1)

		case "pgup":
			m.detail.HalfViewUp()
		case "pgdown":
			m.detail.HalfViewDown()
		}
	}
	return m, nil
}

func (m *Model) selected() *SpanNode {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *Model) moveCursorTo(target *SpanNode) {
	for i, node := range m.visible {
		if node == target {
			m.cursor = i
			m.refreshDetail()
			return
		}
	}
}

func (m *Model) refreshDetail() {
	if !m.ready {
		return
	}
	node := m.selected()
	if node == nil {
		m.detail.SetContent(MutedStyle.Render("No spans in this trace."))
		return
	}
	m.detail.SetContent(renderSpanDetail(node.Span))
	m.detail.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready || len(m.traces) == 0 {
		return MutedStyle.Render("Loading traces...")
	}

	header := m.renderHeader()
	tree := m.renderTree()
	detail := BoxStyle.Render(m.detail.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, tree, detail)
	help := m.renderHelp()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m Model) renderHeader() string {
	tr := m.traces[m.traceIdx]
	title := TitleStyle.Render(fmt.Sprintf(" Trace %d/%d ", m.traceIdx+1, len(m.traces)))
	summary := fmt.Sprintf("run %s  trace %s  %d spans  %s tokens  %s",
		m.runID,
		shortID(tr.TraceID),
		len(tr.Spans),
		fmt.Sprintf("%d", tr.TotalTokens),
		DurationStyle.Render(formatDuration(tr.TotalDurationMs)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, MutedStyle.Render(summary))
}

func (m Model) renderTree() string {
	contentHeight := m.detail.Height
	treeWidth := m.width - m.detail.Width - 6
	if treeWidth < 30 {
		treeWidth = 30
	}

	start := 0
	if m.cursor >= contentHeight {
		start = m.cursor - contentHeight + 1
	}
	end := start + contentHeight
	if end > len(m.visible) {
		end = len(m.visible)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderSpanLine(m.visible[i], i == m.cursor, treeWidth))
		b.WriteString("\n")
	}
	return BoxStyle.Width(treeWidth).Height(contentHeight).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderSpanLine(node *SpanNode, selected bool, width int) string {
	indent := strings.Repeat("  ", node.Depth)

	marker := "  "
	if node.HasChildren() {
		if node.Expanded {
			marker = "▼ "
		} else {
			marker = "▶ "
		}
	}

	status := " "
	switch node.Span.Status.Code {
	case telemetry.StatusError:
		status = ErrorStyle.Render("✗")
	case telemetry.StatusOK:
		status = SuccessStyle.Render("✓")
	}

	label := FriendlyName(node.Span)
	duration := DurationStyle.Render(formatDuration(node.Span.DurationMs))

	line := fmt.Sprintf("%s%s%s %s %s", indent, marker, status, label, duration)
	if lipgloss.Width(line) > width-2 {
		line = truncateLine(line, width-2)
	}

	if selected {
		return SelectedStyle.Render(line)
	}
	return GetSpanStyle(node.Span.Name).Render(line)
}

func (m Model) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"↑/↓", "navigate"},
		{"enter", "expand/collapse"},
		{"tab", "next trace"},
		{"pgup/pgdn", "scroll detail"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, HelpKeyStyle.Render(k.key)+" "+k.desc)
	}
	return HelpStyle.Render(strings.Join(parts, "  "))
}

func renderSpanDetail(span telemetry.Span) string {
	var b strings.Builder

	b.WriteString(SectionHeaderStyle.Render(" Overview "))
	b.WriteString("\n")
	writeField(&b, "Name", span.Name)
	writeField(&b, "Span ID", span.SpanID)
	if span.ParentSpanID != "" {
		writeField(&b, "Parent", span.ParentSpanID)
	}
	writeField(&b, "Kind", span.Kind)
	writeField(&b, "Duration", formatDuration(span.DurationMs))
	writeField(&b, "Status", string(span.Status.Code))
	if span.Status.Description != "" {
		writeField(&b, "Detail", span.Status.Description)
	}

	if len(span.Attributes) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionHeaderStyle.Render(" Attributes "))
		b.WriteString("\n")
		keys := make([]string, 0, len(span.Attributes))
		for k := range span.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeField(&b, k, fmt.Sprintf("%v", span.Attributes[k]))
		}
	}

	if len(span.Events) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionHeaderStyle.Render(" Events "))
		b.WriteString("\n")
		for _, ev := range span.Events {
			writeField(&b, ev.Name, time.Unix(0, ev.Timestamp).UTC().Format(time.RFC3339))
		}
	}

	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(AttributeKeyStyle.Render(key+":") + " " + value + "\n")
}

func formatDuration(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.1fms", ms)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateLine(s string, width int) string {
	if width <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
