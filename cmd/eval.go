package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smoltrace/smoltrace/internal/eval"
	"github.com/smoltrace/smoltrace/internal/leaderboard"
	"github.com/smoltrace/smoltrace/internal/runstore"
	"github.com/smoltrace/smoltrace/internal/telemetry"
	"github.com/smoltrace/smoltrace/internal/utils"
	"github.com/smoltrace/smoltrace/pkg/hub"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run an agent evaluation and capture traces",
	Long: `Run evaluation tests against an agent endpoint, capturing an
OpenTelemetry trace per test plus aggregated run metrics.

Examples:
  # Run the built-in suite against a local agent
  smoltrace eval --model org/model --target http://localhost:8080

  # Run a custom suite file for code agents only
  smoltrace eval --model org/model --suite tests.yaml --agent-type code

  # Validate a suite file without running it
  smoltrace eval --suite tests.yaml --validate-only

  # Push results, traces, and metrics as datasets
  smoltrace eval --model org/model --target http://localhost:8080 --push`,
	RunE: runEval,
}

var (
	evalModel        string
	evalProvider     string
	evalAgentType    string
	evalDifficulty   string
	evalSuiteFile    string
	evalTargetURL    string
	evalPromptsFile  string
	evalTimeout      int
	evalMaxSteps     int
	evalValidateOnly bool
	evalOutputFormat string
	evalFailFast     bool
	evalGPUMetrics   bool
	evalCO2Factor    float64
	evalPush         bool
	evalSubmittedBy  string
)

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalModel, "model", "m", "", "Model identifier being evaluated")
	evalCmd.Flags().StringVar(&evalProvider, "provider", "http", "Inference provider label")
	evalCmd.Flags().StringVar(&evalAgentType, "agent-type", eval.AgentTypeTool, "Agent type to evaluate (tool, code, both)")
	evalCmd.Flags().StringVar(&evalDifficulty, "difficulty", "", "Only run tests of this difficulty (easy, medium, hard)")
	evalCmd.Flags().StringVarP(&evalSuiteFile, "suite", "s", "", "Test suite YAML file (built-in suite if omitted)")
	evalCmd.Flags().StringVar(&evalTargetURL, "target", "", "Agent endpoint URL (required with the built-in suite)")
	evalCmd.Flags().StringVar(&evalPromptsFile, "prompts", "", "Prompt overrides file (YAML or JSON)")
	evalCmd.Flags().IntVar(&evalTimeout, "timeout", 300, "Timeout in seconds for each test")
	evalCmd.Flags().IntVar(&evalMaxSteps, "max-steps", 0, "Maximum agent steps per test")
	evalCmd.Flags().BoolVar(&evalValidateOnly, "validate-only", false, "Only validate the suite file, don't run tests")
	evalCmd.Flags().StringVarP(&evalOutputFormat, "format", "f", "console", "Output format (console, json, markdown)")
	evalCmd.Flags().BoolVar(&evalFailFast, "fail-fast", false, "Stop on first test failure")
	evalCmd.Flags().BoolVar(&evalGPUMetrics, "gpu-metrics", false, "Collect GPU metrics during the run")
	evalCmd.Flags().Float64Var(&evalCO2Factor, "co2-factor", 0, "Grams CO2e per 1k tokens (config default if unset)")
	evalCmd.Flags().BoolVar(&evalPush, "push", false, "Publish results, traces, and metrics as datasets")
	evalCmd.Flags().StringVar(&evalSubmittedBy, "submitted-by", "", "Attribution for the leaderboard row")
}

func runEval(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	// The runner stores outcomes under this value and ComputeRow looks
	// them up by it, so it is canonicalized once here.
	evalAgentType = strings.ToLower(evalAgentType)

	suite, err := loadSuite()
	if err != nil {
		return err
	}

	if evalValidateOnly {
		color.Green("✓ Suite %q is valid (%d tests)", suite.Name, len(suite.Tests))
		return nil
	}
	if evalModel == "" {
		return utils.NewUserError(
			"no model specified",
			"pass the model being evaluated, e.g. --model org/model-name",
			nil,
		)
	}

	agentTypes, err := resolveAgentTypes(evalAgentType)
	if err != nil {
		return err
	}

	prompts, err := eval.LoadPromptConfig(evalPromptsFile)
	if err != nil {
		return fmt.Errorf("failed to load prompt config: %w", err)
	}

	runID := uuid.NewString()[:8]
	co2Factor := evalCO2Factor
	if co2Factor == 0 {
		co2Factor = viper.GetFloat64("co2_factor")
	}

	ctx := cmd.Context()
	rc := telemetry.NewRunContext(telemetry.RunConfig{
		ServiceName:      "smoltrace",
		RunID:            runID,
		EnableGPUMetrics: evalGPUMetrics,
		CO2Factor:        co2Factor,
		Logger:           *log,
	})
	shutdown := func() {
		if err := rc.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}
	defer shutdown()

	runner := eval.NewRunner(&eval.RunnerConfig{
		Model:      evalModel,
		Provider:   evalProvider,
		AgentTypes: agentTypes,
		Difficulty: evalDifficulty,
		Timeout:    time.Duration(evalTimeout) * time.Second,
		MaxSteps:   evalMaxSteps,
		Verbose:    verbose,
		FailFast:   evalFailFast,
		Prompts:    prompts,
		Logger:     *log,
	})

	color.Cyan("🚀 Evaluating %s (%s) against %s", evalModel, evalAgentType, suite.Target.URL)
	startTime := time.Now()

	results, err := runner.Run(ctx, rc, suite)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	traces, dropped := rc.Traces()
	if dropped > 0 {
		log.Warn().Int("count", dropped).Msg("spans without trace IDs were dropped")
	}
	metrics := rc.CollectMetrics(ctx, traces, results.SuccessLookup())

	hubUsername := viper.GetString("hub_username")
	if evalSubmittedBy != "" {
		hubUsername = evalSubmittedBy
	}
	names := hub.GenerateDatasetNames(hubUsername, startTime)
	in := leaderboard.RowInput{
		Model:       evalModel,
		Provider:    evalProvider,
		AgentType:   evalAgentType,
		RunID:       runID,
		SubmittedBy: evalSubmittedBy,
		DatasetUsed: suite.Name,
		Results:     results,
		Traces:      traces,
		Metrics:     metrics,
	}
	if evalPush {
		in.ResultsDataset = names.Results
		in.TracesDataset = names.Traces
		in.MetricsDataset = names.Metrics
	}
	row := leaderboard.ComputeRow(in)

	store := runstore.NewStore(viper.GetString("runs_dir"))
	runDir, err := store.SaveRun(results, traces, metrics, row, runstore.Metadata{
		RunID:       runID,
		Model:       evalModel,
		AgentType:   evalAgentType,
		Provider:    evalProvider,
		DatasetUsed: suite.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	lbStore := leaderboard.NewStore(viper.GetString("leaderboard_file"))
	if err := lbStore.Append(row); err != nil {
		log.Warn().Err(err).Msg("failed to update local leaderboard")
	}

	reporter := eval.NewReporter(evalOutputFormat)
	if err := reporter.Generate(results, os.Stdout); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	color.Green("💾 Run saved to %s", runDir)

	if evalPush {
		if err := pushRun(cmd, hubUsername, names, runDir, runID, row); err != nil {
			return err
		}
	}

	if results.Successful() < results.Total() {
		// os.Exit skips deferred calls, so tear down telemetry first.
		shutdown()
		os.Exit(1)
	}
	return nil
}

func pushRun(cmd *cobra.Command, username string, names hub.DatasetNames, runDir, runID string, row leaderboard.Row) error {
	if username == "" {
		return fmt.Errorf("--submitted-by or SMOLTRACE_HUB_USERNAME is required with --push")
	}

	workDir, err := os.MkdirTemp("", "smoltrace-push-")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	publisher := hub.NewPublisher(hub.Config{
		BaseURL:  viper.GetString("hub_base_url"),
		Username: username,
		Token:    viper.GetString("hub_token"),
		WorkDir:  workDir,
		Logger:   *GetLogger(),
	})

	ctx := cmd.Context()
	info := hub.RunInfo{RunID: runID, Model: evalModel}
	if err := publisher.PublishRun(ctx, names, runDir, info); err != nil {
		return fmt.Errorf("failed to publish datasets: %w", err)
	}
	if err := publisher.UpdateLeaderboard(ctx, names.Leaderboard, row); err != nil {
		return fmt.Errorf("failed to update leaderboard dataset: %w", err)
	}

	color.Green("📤 Published datasets: %s", names.Results)
	return nil
}

func loadSuite() (*eval.TestSuite, error) {
	if evalSuiteFile != "" {
		suite, err := eval.ParseSuiteFile(evalSuiteFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load suite: %w", err)
		}
		if evalTargetURL != "" {
			suite.Target = eval.Target{Type: "http", URL: evalTargetURL}
		}
		return suite, nil
	}

	if evalTargetURL == "" && !evalValidateOnly {
		return nil, utils.NewUserError(
			"no agent target specified",
			"pass --target http://<host>:<port> or provide a suite file with a target via --suite",
			nil,
		)
	}
	return &eval.TestSuite{
		Name:        "smoltrace-default",
		Description: "Built-in tool and code agent test cases",
		Target:      eval.Target{Type: "http", URL: evalTargetURL},
		Tests:       eval.DefaultTestCases,
	}, nil
}

func resolveAgentTypes(agentType string) ([]string, error) {
	switch strings.ToLower(agentType) {
	case eval.AgentTypeTool:
		return []string{eval.AgentTypeTool}, nil
	case eval.AgentTypeCode:
		return []string{eval.AgentTypeCode}, nil
	case eval.AgentTypeBoth:
		return []string{eval.AgentTypeTool, eval.AgentTypeCode}, nil
	default:
		return nil, utils.NewUserError(
			fmt.Sprintf("invalid agent type: %s", agentType),
			"use --agent-type tool, code, or both",
			nil,
		)
	}
}
