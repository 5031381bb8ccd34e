// Package tui provides the interactive trace viewer for the smoltrace CLI.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#06B6D4") // Cyan
	successColor   = lipgloss.Color("#10B981") // Green
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	accentColor    = lipgloss.Color("#F472B6") // Pink
)

// Box styles
var (
	// BoxStyle is the main container style
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// TitleStyle for main titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 2)

	// SectionHeaderStyle for detail view sections
	SectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(secondaryColor).
				Padding(0, 1).
				Margin(1, 0, 0, 0)
)

// Text styles
var (
	// SelectedStyle for selected items
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(secondaryColor)

	// MutedStyle for less important text
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// SuccessStyle for success indicators
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ErrorStyle for error indicators
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// DurationStyle for duration values
	DurationStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// AttributeKeyStyle for attribute keys
	AttributeKeyStyle = lipgloss.NewStyle().
				Foreground(secondaryColor)
)

// Span type styles
var (
	EvaluationSpanStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8B5CF6")) // Violet

	LLMSpanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")) // Emerald

	ToolSpanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")) // Amber
)

// Help bar style
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)
)

// GetSpanStyle returns the appropriate style based on span name
func GetSpanStyle(spanName string) lipgloss.Style {
	name := strings.ToLower(spanName)
	switch {
	case strings.Contains(name, "evaluation"), strings.Contains(name, "test"):
		return EvaluationSpanStyle
	case strings.Contains(name, "llm"), strings.Contains(name, "model"):
		return LLMSpanStyle
	case strings.Contains(name, "tool"):
		return ToolSpanStyle
	default:
		return lipgloss.NewStyle()
	}
}
