package eval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smoltrace/smoltrace/internal/telemetry"
)

func agentStub(t *testing.T, respond func(req InvokeRequest) InvokeResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/invoke", func(w http.ResponseWriter, r *http.Request) {
		var req InvokeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(respond(req))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunnerRun(t *testing.T) {
	srv := agentStub(t, func(req InvokeRequest) InvokeResponse {
		return InvokeResponse{
			Response:          "The weather in Paris is sunny",
			ToolsUsed:         []string{"get_weather"},
			FinalAnswerCalled: true,
			Steps:             3,
		}
	})

	suite := &TestSuite{
		Name:   "weather",
		Target: Target{Type: "http", URL: srv.URL},
		Tests: []TestCase{{
			ID:           "tool_weather_single",
			Prompt:       "What's the weather in Paris?",
			ExpectedTool: "get_weather",
			Difficulty:   "easy",
			AgentType:    AgentTypeTool,
		}},
	}

	ctx := context.Background()
	rc := telemetry.NewRunContext(telemetry.RunConfig{Logger: zerolog.Nop()})
	defer rc.Shutdown(ctx)

	runner := NewRunner(&RunnerConfig{
		Model:      "test-model",
		AgentTypes: []string{AgentTypeTool},
		Timeout:    5 * time.Second,
		Logger:     zerolog.Nop(),
	})

	results, err := runner.Run(ctx, rc, suite)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results.Total() != 1 || results.Successful() != 1 {
		t.Fatalf("results = %d/%d, want 1/1", results.Successful(), results.Total())
	}

	outcome := results.ByAgentType[AgentTypeTool][0]
	if outcome.TestID != "tool_weather_single" {
		t.Errorf("TestID = %q", outcome.TestID)
	}
	if outcome.TraceID == "" {
		t.Error("outcome has no trace ID")
	}
	if outcome.RunID != rc.RunID {
		t.Errorf("RunID = %q, want %q", outcome.RunID, rc.RunID)
	}

	spans := rc.Recorder().FinishedSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "test_evaluation" {
		t.Errorf("span name = %q", span.Name)
	}
	if span.Attributes["test.id"] != "tool_weather_single" {
		t.Errorf("test.id attribute = %v", span.Attributes["test.id"])
	}
	if span.Attributes["tests.tool_calls"] != int64(1) {
		t.Errorf("tests.tool_calls = %v", span.Attributes["tests.tool_calls"])
	}
	if span.Attributes["tests.steps"] != int64(3) {
		t.Errorf("tests.steps = %v", span.Attributes["tests.steps"])
	}
	if span.TraceID != outcome.TraceID {
		t.Errorf("span trace ID %q does not match outcome %q", span.TraceID, outcome.TraceID)
	}
}

func TestRunnerCapturesTargetErrors(t *testing.T) {
	srv := agentStub(t, func(req InvokeRequest) InvokeResponse {
		return InvokeResponse{Error: "model overloaded"}
	})

	suite := &TestSuite{
		Name:   "failing",
		Target: Target{Type: "http", URL: srv.URL},
		Tests: []TestCase{
			{ID: "a", Prompt: "p", Difficulty: "easy", AgentType: AgentTypeTool},
			{ID: "b", Prompt: "q", Difficulty: "easy", AgentType: AgentTypeTool},
		},
	}

	ctx := context.Background()
	rc := telemetry.NewRunContext(telemetry.RunConfig{Logger: zerolog.Nop()})
	defer rc.Shutdown(ctx)

	runner := NewRunner(&RunnerConfig{
		AgentTypes: []string{AgentTypeTool},
		Timeout:    5 * time.Second,
		Logger:     zerolog.Nop(),
	})

	results, err := runner.Run(ctx, rc, suite)
	if err != nil {
		t.Fatalf("Run() error = %v; per-test errors must not abort the run", err)
	}
	if results.Total() != 2 {
		t.Fatalf("results.Total() = %d, want 2", results.Total())
	}
	for _, o := range results.All() {
		if o.Success {
			t.Errorf("test %s succeeded despite target error", o.TestID)
		}
		if o.Error != "model overloaded" {
			t.Errorf("test %s error = %q", o.TestID, o.Error)
		}
	}

	for _, span := range rc.Recorder().FinishedSpans() {
		if span.Status.Code != telemetry.StatusError {
			t.Errorf("span %s status = %q, want ERROR", span.Name, span.Status.Code)
		}
	}
}

func TestRunnerFailFast(t *testing.T) {
	srv := agentStub(t, func(req InvokeRequest) InvokeResponse {
		return InvokeResponse{Error: "boom"}
	})

	suite := &TestSuite{
		Name:   "failfast",
		Target: Target{Type: "http", URL: srv.URL},
		Tests: []TestCase{
			{ID: "a", Prompt: "p", Difficulty: "easy", AgentType: AgentTypeTool},
			{ID: "b", Prompt: "q", Difficulty: "easy", AgentType: AgentTypeTool},
		},
	}

	ctx := context.Background()
	rc := telemetry.NewRunContext(telemetry.RunConfig{Logger: zerolog.Nop()})
	defer rc.Shutdown(ctx)

	runner := NewRunner(&RunnerConfig{
		AgentTypes: []string{AgentTypeTool},
		Timeout:    5 * time.Second,
		FailFast:   true,
		Logger:     zerolog.Nop(),
	})

	results, err := runner.Run(ctx, rc, suite)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results.Total() != 1 {
		t.Errorf("results.Total() = %d, want 1 after fail-fast stop", results.Total())
	}
}

func TestRunnerUnsupportedTarget(t *testing.T) {
	ctx := context.Background()
	rc := telemetry.NewRunContext(telemetry.RunConfig{Logger: zerolog.Nop()})
	defer rc.Shutdown(ctx)

	runner := NewRunner(&RunnerConfig{Logger: zerolog.Nop()})
	_, err := runner.Run(ctx, rc, &TestSuite{Target: Target{Type: "grpc"}})
	if err == nil {
		t.Error("expected error for unsupported target type")
	}
}

func TestResultSetSuccessLookup(t *testing.T) {
	rs := NewResultSet("run", "model")
	rs.ByAgentType[AgentTypeTool] = []TestOutcome{
		{TestID: "t1", Success: true},
		{TestID: "t2", Success: false},
	}
	rs.ByAgentType[AgentTypeCode] = []TestOutcome{
		{TestID: "c1", Success: true},
	}

	lookup := rs.SuccessLookup()
	if !lookup["t1"] || lookup["t2"] || !lookup["c1"] {
		t.Errorf("lookup = %v", lookup)
	}
	if rs.Total() != 3 || rs.Successful() != 2 {
		t.Errorf("counts = %d/%d", rs.Successful(), rs.Total())
	}
	if got := len(rs.Filter(AgentTypeBoth)); got != 3 {
		t.Errorf("Filter(both) = %d outcomes, want 3", got)
	}
}
