package telemetry

import "testing"

func findSummary(t *testing.T, summaries []MetricSummary, name string) MetricSummary {
	t.Helper()
	for _, s := range summaries {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("summary %q not found", name)
	return MetricSummary{}
}

func scalar(t *testing.T, s MetricSummary) ScalarValue {
	t.Helper()
	if len(s.DataPoints) != 1 {
		t.Fatalf("%s has %d data points, want 1", s.Name, len(s.DataPoints))
	}
	v, ok := s.DataPoints[0].Value.(ScalarValue)
	if !ok {
		t.Fatalf("%s value is %T, want ScalarValue", s.Name, s.DataPoints[0].Value)
	}
	return v
}

func histogram(t *testing.T, s MetricSummary) HistogramValue {
	t.Helper()
	if len(s.DataPoints) != 1 {
		t.Fatalf("%s has %d data points, want 1", s.Name, len(s.DataPoints))
	}
	v, ok := s.DataPoints[0].Value.(HistogramValue)
	if !ok {
		t.Fatalf("%s value is %T, want HistogramValue", s.Name, s.DataPoints[0].Value)
	}
	return v
}

func TestAggregateEmptyInput(t *testing.T) {
	var agg Aggregator
	if got := agg.Aggregate(nil, nil); got != nil {
		t.Errorf("Aggregate(nil) = %v, want nil", got)
	}
	if got := agg.Aggregate([]*Trace{}, map[string]bool{}); got != nil {
		t.Errorf("Aggregate(empty) = %v, want nil", got)
	}
}

func TestAggregateSingleSuccessfulTest(t *testing.T) {
	traces := []*Trace{{
		TraceID: "t1",
		Spans: []Span{{
			TraceID: "t1",
			Name:    "test_evaluation",
			Attributes: map[string]any{
				AttrTestID:    "ops_1",
				AttrToolCalls: "3",
				AttrSteps:     "5",
			},
		}},
	}}

	var agg Aggregator
	summaries := agg.Aggregate(traces, map[string]bool{"ops_1": true})
	if len(summaries) != 6 {
		t.Fatalf("got %d summaries, want 6", len(summaries))
	}

	succ := findSummary(t, summaries, MetricTestsSuccessful)
	if succ.Type != "counter" {
		t.Errorf("tests.successful type = %q, want counter", succ.Type)
	}
	if v := scalar(t, succ); v.Value != 1 {
		t.Errorf("success count = %v, want 1", v.Value)
	}
	attrs := succ.DataPoints[0].Attributes
	if attrs["total_tests"] != 1 {
		t.Errorf("total_tests = %v, want 1", attrs["total_tests"])
	}
	if attrs["success_rate"] != 100.0 {
		t.Errorf("success_rate = %v, want 100.0", attrs["success_rate"])
	}

	calls := histogram(t, findSummary(t, summaries, MetricTestsToolCalls))
	if calls.Sum != 3 || calls.Count != 1 || calls.Avg != 3.0 {
		t.Errorf("tool calls = %+v, want sum 3 count 1 avg 3", calls)
	}

	steps := histogram(t, findSummary(t, summaries, MetricTestsSteps))
	if steps.Sum != 5 || steps.Count != 1 || steps.Avg != 5.0 {
		t.Errorf("steps = %+v, want sum 5 count 1 avg 5", steps)
	}
}

func TestAggregateCO2FromTokens(t *testing.T) {
	traces := []*Trace{{TraceID: "t1", TotalTokens: 2500}}

	var agg Aggregator
	summaries := agg.Aggregate(traces, nil)

	tokens := scalar(t, findSummary(t, summaries, MetricTokenTotal))
	if tokens.Value != 2500 {
		t.Errorf("token total = %v, want 2500", tokens.Value)
	}

	co2 := findSummary(t, summaries, MetricCO2Emissions)
	if co2.Unit != "gCO2e" {
		t.Errorf("co2 unit = %q, want gCO2e", co2.Unit)
	}
	if v := scalar(t, co2); v.Value != 0.001 {
		t.Errorf("co2 = %v, want 0.001", v.Value)
	}
}

func TestAggregateCustomCO2Factor(t *testing.T) {
	traces := []*Trace{{TraceID: "t1", TotalTokens: 1000}}

	agg := Aggregator{CO2Factor: 0.5}
	summaries := agg.Aggregate(traces, nil)
	if v := scalar(t, findSummary(t, summaries, MetricCO2Emissions)); v.Value != 0.5 {
		t.Errorf("co2 = %v, want 0.5 with overridden factor", v.Value)
	}
}

func TestAggregateNoTestsZeroDivision(t *testing.T) {
	traces := []*Trace{{
		TraceID: "t1",
		Spans:   []Span{{TraceID: "t1", Name: "llm.call"}},
	}}

	var agg Aggregator
	summaries := agg.Aggregate(traces, nil)

	succ := findSummary(t, summaries, MetricTestsSuccessful)
	if rate := succ.DataPoints[0].Attributes["success_rate"]; rate != 0.0 {
		t.Errorf("success_rate = %v, want 0.0 with no tests", rate)
	}
	calls := histogram(t, findSummary(t, summaries, MetricTestsToolCalls))
	if calls.Avg != 0 || calls.Count != 0 {
		t.Errorf("tool calls = %+v, want zero histogram", calls)
	}
}

func TestAggregateCostRounding(t *testing.T) {
	traces := []*Trace{
		{TraceID: "a", TotalCostUSD: 0.0000012},
		{TraceID: "b", TotalCostUSD: 0.0000019},
	}

	var agg Aggregator
	summaries := agg.Aggregate(traces, nil)
	cost := findSummary(t, summaries, MetricCostTotal)
	if cost.Unit != "USD" {
		t.Errorf("cost unit = %q, want USD", cost.Unit)
	}
	if v := scalar(t, cost); v.Value != 0.000003 {
		t.Errorf("cost = %v, want 0.000003 after rounding", v.Value)
	}
}

func TestAggregateSuccessRateAcrossTraces(t *testing.T) {
	mkTest := func(traceID, testID string) *Trace {
		return &Trace{
			TraceID: traceID,
			Spans: []Span{{
				TraceID:    traceID,
				Name:       "test_evaluation",
				Attributes: map[string]any{AttrTestID: testID},
			}},
		}
	}
	traces := []*Trace{mkTest("a", "t1"), mkTest("b", "t2"), mkTest("c", "t3")}

	var agg Aggregator
	summaries := agg.Aggregate(traces, map[string]bool{"t1": true, "t3": false})

	succ := findSummary(t, summaries, MetricTestsSuccessful)
	if v := scalar(t, succ); v.Value != 1 {
		t.Errorf("success count = %v, want 1", v.Value)
	}
	if rate := succ.DataPoints[0].Attributes["success_rate"]; rate != 33.33 {
		t.Errorf("success_rate = %v, want 33.33", rate)
	}
}
