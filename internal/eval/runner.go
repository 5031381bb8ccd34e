package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

// defaultMaxSteps caps agent runs that never reach a final answer.
const defaultMaxSteps = 20

// RunnerConfig configures the test runner
type RunnerConfig struct {
	Model      string
	Provider   string
	AgentTypes []string
	Difficulty string
	Timeout    time.Duration
	MaxSteps   int
	Verbose    bool
	FailFast   bool
	Prompts    PromptConfig
	Logger     zerolog.Logger
}

// Runner executes test suites against an agent target, emitting one
// span per test so outcomes can be joined with traces afterward.
type Runner struct {
	config *RunnerConfig
	target *HTTPTarget
}

// NewRunner creates a new test runner
func NewRunner(config *RunnerConfig) *Runner {
	if config.MaxSteps == 0 {
		config.MaxSteps = defaultMaxSteps
	}
	if len(config.AgentTypes) == 0 {
		config.AgentTypes = []string{AgentTypeTool}
	}
	return &Runner{config: config}
}

// Run executes the suite for every configured agent type and returns
// the scored outcomes. A failing test never aborts the run unless
// FailFast is set; target or setup errors do.
func (r *Runner) Run(ctx context.Context, rc *telemetry.RunContext, suite *TestSuite) (*ResultSet, error) {
	if suite.Target.Type != "http" {
		return nil, fmt.Errorf("unsupported target type: %s", suite.Target.Type)
	}
	r.target = NewHTTPTarget(suite.Target.URL, r.config.Timeout)

	if r.config.Verbose {
		fmt.Printf("\n🏥 Health check: %s\n", suite.Target.URL)
	}
	if err := r.target.Health(ctx); err != nil {
		return nil, fmt.Errorf("target health check failed: %w", err)
	}
	if r.config.Verbose {
		fmt.Println("✓ Target is healthy")
	}

	results := NewResultSet(rc.RunID, r.config.Model)
	results.StartTime = time.Now()
	tracer := rc.Tracer()

	testIndex := 0
	for _, agentType := range r.config.AgentTypes {
		cases := FilterTests(suite.Tests, agentType, r.config.Difficulty)
		if len(cases) == 0 {
			r.config.Logger.Warn().Str("agent_type", agentType).Msg("no test cases apply")
			continue
		}

		for i, tc := range cases {
			if r.config.Verbose {
				fmt.Printf("\n[%d/%d] %s (%s) [%s]\n", i+1, len(cases), tc.ID, tc.Difficulty, agentType)
			}

			outcome := r.runTest(ctx, tracer, tc, agentType)
			outcome.RunID = rc.RunID
			outcome.TestIndex = testIndex
			testIndex++
			results.ByAgentType[agentType] = append(results.ByAgentType[agentType], outcome)

			if r.config.Verbose {
				if outcome.Success {
					fmt.Printf("  ✓ PASSED (%.2fs)\n", outcome.DurationMs/1000)
				} else {
					fmt.Printf("  ✗ FAILED: %s\n", failureReason(outcome))
				}
			}
			if r.config.FailFast && !outcome.Success {
				results.EndTime = time.Now()
				return results, nil
			}
		}
	}

	results.EndTime = time.Now()
	return results, nil
}

// runTest executes a single test inside its evaluation span
func (r *Runner) runTest(ctx context.Context, tracer trace.Tracer, tc TestCase, agentType string) TestOutcome {
	outcome := TestOutcome{
		TestID:          tc.ID,
		AgentType:       agentType,
		Difficulty:      tc.Difficulty,
		Prompt:          tc.Prompt,
		ToolsUsed:       []string{},
		ResponseCorrect: true,
	}

	spanCtx, span := tracer.Start(ctx, "test_evaluation", trace.WithAttributes(
		attribute.String("test.id", tc.ID),
		attribute.String("test.difficulty", tc.Difficulty),
		attribute.String("agent.type", agentType),
		attribute.String("prompt", truncate(tc.Prompt, 100)),
	))
	defer span.End()

	outcome.TraceID = span.SpanContext().TraceID().String()

	start := time.Now()
	resp, err := r.target.Invoke(spanCtx, InvokeRequest{
		Prompt:    tc.Prompt,
		AgentType: agentType,
		MaxSteps:  r.config.MaxSteps,
		Prompts:   r.config.Prompts,
	})
	outcome.DurationMs = float64(time.Since(start)) / float64(time.Millisecond)

	if err != nil {
		outcome.Error = err.Error()
		span.SetStatus(codes.Error, outcome.Error)
		return outcome
	}
	if resp.Error != "" {
		outcome.Error = resp.Error
		outcome.Response = resp.Response
		span.SetStatus(codes.Error, resp.Error)
		return outcome
	}

	scoreOutcome(tc, agentType, resp, &outcome)

	span.SetAttributes(
		attribute.Int("tests.tool_calls", len(outcome.ToolsUsed)),
		attribute.Int("tests.steps", outcome.Steps),
	)
	if outcome.Success {
		span.SetStatus(codes.Ok, "")
	}

	return outcome
}

func failureReason(o TestOutcome) string {
	switch {
	case o.Error != "":
		return o.Error
	case !o.ToolCalled:
		return "no tool was called"
	case !o.CorrectTool:
		return "wrong tool was called"
	case !o.FinalAnswerCalled:
		return "final_answer was never called"
	case !o.ResponseCorrect:
		return "response missed expected keywords"
	default:
		return "unknown"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
