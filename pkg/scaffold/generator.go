package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/smoltrace/smoltrace/internal/utils"
)

// GenerateOptions configures suite project generation
type GenerateOptions struct {
	ProjectName string
	ProjectPath string
	Template    TemplateType
	TargetURL   string
	Force       bool
}

// TemplateData is the data passed to file templates
type TemplateData struct {
	ProjectName string
	TargetURL   string
	IncludeCode bool
}

// Generator renders a starter suite project to disk
type Generator struct{}

// NewGenerator creates a new generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate creates the suite project files
func (g *Generator) Generate(opts GenerateOptions) error {
	if opts.TargetURL == "" {
		opts.TargetURL = "http://localhost:8080"
	}

	if utils.DirExists(opts.ProjectPath) && !opts.Force {
		return fmt.Errorf("directory already exists: %s", opts.ProjectPath)
	}
	if err := utils.EnsureDir(opts.ProjectPath); err != nil {
		return err
	}

	data := TemplateData{
		ProjectName: opts.ProjectName,
		TargetURL:   opts.TargetURL,
		IncludeCode: opts.Template == TemplateFull,
	}

	files := map[string]string{
		"tests.yaml":      suiteTemplate,
		".smoltrace.toml": configTemplate,
		"README.md":       readmeTemplate,
	}
	if data.IncludeCode {
		files["prompts.json"] = promptsTemplate
	}

	for name, tmpl := range files {
		content, err := renderTemplate(name, tmpl, data)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(opts.ProjectPath, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}

func renderTemplate(name, text string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const suiteTemplate = `name: {{ .ProjectName }}
description: Evaluation suite for {{ .ProjectName }}
target:
  type: http
  url: {{ .TargetURL }}
tests:
  - id: tool_weather_single
    prompt: "What's the weather in Paris, France?"
    expected_tool: get_weather
    expected_keywords: [paris, weather]
    difficulty: easy
    agent_type: tool
  - id: tool_weather_compare
    prompt: "Compare the weather in Paris and London."
    expected_tool: multiple
    expected_tool_calls: 2
    expected_keywords: [paris, london]
    difficulty: medium
    agent_type: tool
{{- if .IncludeCode }}
  - id: code_calculator_single
    prompt: "What is 25 multiplied by 17?"
    expected_tool: calculator
    expected_keywords: ["425"]
    difficulty: easy
    agent_type: code
{{- end }}
`

const configTemplate = `# smoltrace configuration for {{ .ProjectName }}

runs_dir = ".smoltrace/runs"
leaderboard_file = ".smoltrace/leaderboard.json"

# hub_base_url = "https://huggingface.co/datasets"
# hub_username = "{{ .ProjectName | lower }}"
# hub_token = ""
`

const promptsTemplate = `{
  "system_prompt": "You are a helpful assistant. Use the available tools and finish with final_answer."
}
`

const readmeTemplate = `# {{ .ProjectName | title }}

Evaluation suite for {{ .ProjectName }}.

## Running

` + "```" + `sh
smoltrace eval --model <model> --suite tests.yaml{{ if .IncludeCode }} --agent-type both{{ end }}
` + "```" + `

Results are stored under .smoltrace/runs/. View them with:

` + "```" + `sh
smoltrace trace list
smoltrace trace show
smoltrace leaderboard
` + "```" + `
`
