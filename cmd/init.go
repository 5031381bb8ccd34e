package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smoltrace/smoltrace/pkg/scaffold"
)

var (
	initTemplate      string
	initOutputDir     string
	initTargetURL     string
	initForce         bool
	initListTemplates bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [suite-name]",
	Short: "Initialize a new evaluation suite project",
	Long: `Initialize a new evaluation suite project with starter files.

The init command creates a suite directory containing:

- Test suite definition (tests.yaml)
- smoltrace configuration (.smoltrace.toml)
- Prompt overrides (prompts.json, full template only)
- README with usage instructions

Examples:
  # Create a basic tool-agent suite
  smoltrace init my-suite

  # Create a tool + code suite pointing at a running agent
  smoltrace init my-suite --template full --target http://localhost:8080

  # List available templates
  smoltrace init --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if initListTemplates {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runInitCommand,
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	if initListTemplates {
		return listTemplates()
	}

	suiteName := args[0]
	if err := validateSuiteName(suiteName); err != nil {
		color.Red("✗ Invalid suite name: %v", err)
		return err
	}

	templateType, err := scaffold.ValidateTemplate(initTemplate)
	if err != nil {
		color.Red("✗ %v", err)
		return err
	}

	suitePath := filepath.Join(initOutputDir, suiteName)

	color.Cyan("\n📦 Creating evaluation suite: %s", suiteName)
	color.Cyan("   Template: %s\n", initTemplate)

	generator := scaffold.NewGenerator()
	err = generator.Generate(scaffold.GenerateOptions{
		ProjectName: suiteName,
		ProjectPath: suitePath,
		Template:    templateType,
		TargetURL:   initTargetURL,
		Force:       initForce,
	})
	if err != nil {
		color.Red("✗ Suite generation failed: %v", err)
		return err
	}

	color.Green("\n✅ Suite initialized successfully!\n")
	printNextSteps(suitePath)
	return nil
}

func listTemplates() error {
	color.Cyan("\n📋 Available suite templates\n")

	for i, tmpl := range scaffold.GetAllTemplates() {
		color.Green("%d. %s", i+1, tmpl.Name)
		fmt.Printf("   %s\n", color.YellowString(tmpl.Description))
		fmt.Printf("   Features: %s\n", color.CyanString("%v", tmpl.Features))
		fmt.Printf("   Files: %s\n", color.MagentaString("%d", tmpl.FileCount))
		fmt.Println()
	}

	return nil
}

func validateSuiteName(name string) error {
	if name == "" {
		return fmt.Errorf("suite name cannot be empty")
	}
	for _, ch := range name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_') {
			return fmt.Errorf("suite name can only contain alphanumeric characters, hyphens, and underscores")
		}
	}
	return nil
}

func printNextSteps(suitePath string) {
	relPath, _ := filepath.Rel(".", suitePath)

	fmt.Println(color.BlueString("📖 Next Steps:"))
	fmt.Printf("  1. %s\n", color.CyanString("cd %s", relPath))
	fmt.Printf("  2. %s\n", color.CyanString("edit tests.yaml                       # Point target.url at your agent"))
	fmt.Printf("  3. %s\n", color.CyanString("smoltrace eval --model <model> --suite tests.yaml"))
	fmt.Printf("  4. %s\n", color.CyanString("smoltrace trace show                  # Inspect the captured traces"))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initListTemplates, "list", false, "List available templates")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "basic", "Template type: basic, full")
	initCmd.Flags().StringVarP(&initOutputDir, "output", "o", ".", "Output directory for the suite")
	initCmd.Flags().StringVar(&initTargetURL, "target", "", "Agent endpoint URL to write into the suite")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing files")
}
