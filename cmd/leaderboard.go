package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smoltrace/smoltrace/internal/leaderboard"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the local evaluation leaderboard",
	Long: `Show leaderboard rows accumulated from local evaluation runs,
ranked by success rate.

Examples:
  smoltrace leaderboard
  smoltrace leaderboard --agent-type code`,
	RunE: runLeaderboard,
}

var leaderboardAgentType string

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().StringVar(&leaderboardAgentType, "agent-type", "", "Only show rows for this agent type")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	store := leaderboard.NewStore(viper.GetString("leaderboard_file"))
	rows, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if leaderboardAgentType != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.AgentType == leaderboardAgentType {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if len(rows) == 0 {
		fmt.Println("Leaderboard is empty. Run 'smoltrace eval' to add a row.")
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SuccessRate > rows[j].SuccessRate
	})

	color.Cyan("\n🏆 Leaderboard")
	fmt.Printf("%-4s %-30s %-6s %-8s %-8s %-10s %-10s\n",
		"#", "Model", "Agent", "Tests", "Success", "Tokens", "Cost USD")
	fmt.Println(strings.Repeat("-", 82))

	for i, row := range rows {
		fmt.Printf("%-4d %-30s %-6s %-8d %6.1f%% %-10d %10.4f\n",
			i+1, truncateCol(row.Model, 30), row.AgentType,
			row.NumTests, row.SuccessRate, row.TotalTokens, row.TotalCostUSD)
	}
	fmt.Println()

	return nil
}
