package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smoltrace/smoltrace/internal/diagram"
	"github.com/smoltrace/smoltrace/internal/runstore"
	"github.com/smoltrace/smoltrace/internal/tui"
	"github.com/smoltrace/smoltrace/internal/utils"
)

// traceCmd represents the trace command
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Manage and view evaluation traces",
	Long: `Manage and view traces captured by smoltrace eval.

Runs are stored under ` + runstore.DefaultBaseDir + `/<model>_<agent-type>_<timestamp>/.

Examples:
  smoltrace trace list              # List all stored runs
  smoltrace trace show              # View the latest run in the TUI
  smoltrace trace show <run-id>     # View a specific run
  smoltrace trace export <run-id>   # Export traces as JSON or Mermaid
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTraces()
	},
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTraces()
	},
}

var traceShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a run's traces in the interactive viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := ""
		if len(args) > 0 {
			runID = args[0]
		}
		return showTrace(runID)
	},
}

var traceExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run's traces for external tools",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := ""
		if len(args) > 0 {
			runID = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return exportTraces(runID, format, output)
	},
}

var traceMermaidCmd = &cobra.Command{
	Use:   "mermaid [run-id]",
	Short: "Generate Mermaid diagrams from a run's traces",
	Long: `Generate Mermaid flowcharts visualizing each trace's execution path.

The diagrams show the evaluation, model, and tool spans of every test.
Output is Markdown with embedded Mermaid code.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := ""
		if len(args) > 0 {
			runID = args[0]
		}
		output, _ := cmd.Flags().GetString("output")
		return exportTraces(runID, "mermaid", output)
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(traceShowCmd)
	traceCmd.AddCommand(traceExportCmd)
	traceCmd.AddCommand(traceMermaidCmd)

	traceExportCmd.Flags().String("format", "json", "Export format: json, mermaid")
	traceExportCmd.Flags().String("output", "", "Output file (default: stdout)")
	traceMermaidCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runStore() *runstore.Store {
	return runstore.NewStore(viper.GetString("runs_dir"))
}

func listTraces() error {
	runs, err := runStore().ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs found. Run 'smoltrace eval' to generate traces.")
		return nil
	}

	fmt.Println()
	fmt.Printf("%-10s %-30s %-6s %-20s %-8s %-8s\n",
		"Run ID", "Model", "Agent", "Timestamp", "Tests", "Success")
	fmt.Println(strings.Repeat("-", 88))

	for _, run := range runs {
		fmt.Printf("%-10s %-30s %-6s %-20s %-8d %6.1f%%\n",
			run.RunID, truncateCol(run.Model, 30), run.AgentType,
			run.Timestamp, run.NumResults, run.SuccessRate)
	}
	fmt.Println()

	return nil
}

func showTrace(runID string) error {
	run, err := runStore().LoadRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if len(run.Traces) == 0 {
		fmt.Println("Run has no traces.")
		return nil
	}

	model := tui.NewTraceViewer(run.Metadata.RunID, run.Traces)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func exportTraces(runID, format, output string) error {
	run, err := runStore().LoadRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	var content []byte
	switch format {
	case "json":
		if output != "" {
			if err := utils.WriteJSON(output, run.Traces); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Printf("✅ Exported %d trace(s) to %s\n", len(run.Traces), output)
			return nil
		}
		data, err := jsonIndent(run.Traces)
		if err != nil {
			return err
		}
		content = data

	case "mermaid":
		var b strings.Builder
		b.WriteString(fmt.Sprintf("# Run %s: %s\n\n", run.Metadata.RunID, run.Metadata.Model))
		for i, tr := range run.Traces {
			b.WriteString(fmt.Sprintf("## Trace %d (%s)\n\n", i+1, tr.TraceID))
			b.WriteString(diagram.FromTrace(tr))
			b.WriteString("\n\n")
		}
		content = []byte(b.String())

	default:
		return fmt.Errorf("unknown format: %s (supported: json, mermaid)", format)
	}

	if output != "" {
		if err := os.WriteFile(output, content, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Printf("✅ Exported trace(s) to %s\n", output)
		return nil
	}
	fmt.Println(string(content))
	return nil
}

func jsonIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal traces: %w", err)
	}
	return data, nil
}

func truncateCol(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
