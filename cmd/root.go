// Package cmd implements the command-line interface for smoltrace.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smoltrace/smoltrace/internal/runstore"
	"github.com/smoltrace/smoltrace/internal/telemetry"
	"github.com/smoltrace/smoltrace/internal/utils"
)

var (
	cfgFile string
	verbose bool
	debug   bool
	logger  *zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "smoltrace",
	Short: "Agent evaluation with OpenTelemetry traces",
	Long: `smoltrace evaluates LLM agents against test suites and captures
full OpenTelemetry traces and metrics for every run.

Features:
  • Tool-calling and code-agent test suites
  • Per-test traces with token, cost, and CO2 rollups
  • GPU metrics aggregation
  • Leaderboard rows comparable across models
  • Dataset publishing for sharing results

Get started with: smoltrace eval --model <model> --target http://localhost:8080`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		logger, err = utils.NewLogger(debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		// Set a global level as well for libraries using zerolog's package logger
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		*logger = logger.With().Timestamp().Logger()
		zerolog.TimeFieldFormat = time.RFC3339
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.smoltrace.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug mode")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".smoltrace")
	}

	viper.SetEnvPrefix("SMOLTRACE")
	viper.AutomaticEnv()

	viper.SetDefault("runs_dir", runstore.DefaultBaseDir)
	viper.SetDefault("leaderboard_file", ".smoltrace/leaderboard.json")
	viper.SetDefault("co2_factor", telemetry.CO2GramsPerKiloToken)
	viper.SetDefault("hub_base_url", "https://huggingface.co/datasets")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetLogger returns the configured logger
func GetLogger() *zerolog.Logger {
	if logger == nil {
		if l, err := utils.NewLogger(false); err == nil {
			logger = l
		} else {
			// Fallback to a basic stderr logger
			l := zerolog.New(os.Stderr).With().Timestamp().Logger()
			logger = &l
		}
	}
	return logger
}
