// Package scaffold generates starter evaluation-suite projects.
package scaffold

import "fmt"

// TemplateType represents the type of suite to generate
type TemplateType string

// Template type constants
const (
	TemplateBasic TemplateType = "basic"
	TemplateFull  TemplateType = "full"
)

// TemplateMetadata contains information about a template
type TemplateMetadata struct {
	Name        string
	Description string
	FileCount   int
	Features    []string
}

// ValidateTemplate validates and returns a TemplateType from a string
func ValidateTemplate(templateStr string) (TemplateType, error) {
	validTemplates := map[string]TemplateType{
		"basic": TemplateBasic,
		"full":  TemplateFull,
	}

	if tt, ok := validTemplates[templateStr]; ok {
		return tt, nil
	}

	return "", fmt.Errorf("invalid template '%s'. Valid options: basic, full", templateStr)
}

// GetAllTemplates returns all available templates
func GetAllTemplates() []TemplateMetadata {
	return []TemplateMetadata{
		{
			Name:        "Basic",
			Description: "Tool-agent suite with the built-in test cases",
			FileCount:   3,
			Features:    []string{"Tool tests", "Config"},
		},
		{
			Name:        "Full",
			Description: "Tool and code agent suite with prompt overrides",
			FileCount:   4,
			Features:    []string{"Tool tests", "Code tests", "Prompts", "Config"},
		},
	}
}
