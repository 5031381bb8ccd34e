package telemetry

import "math"

// CO2GramsPerKiloToken estimates emitted grams of CO2 equivalent per
// thousand tokens. A policy constant, not a physical law; override it
// through Aggregator.CO2Factor when a better model applies.
const CO2GramsPerKiloToken = 0.0004

// Metric summary names emitted by the aggregator.
const (
	MetricTestsSuccessful = "tests.successful"
	MetricTestsToolCalls  = "tests.tool_calls"
	MetricTestsSteps      = "tests.steps"
	MetricTokenTotal      = "llm.token_count.total"
	MetricCostTotal       = "gen_ai.usage.cost.total"
	MetricCO2Emissions    = "gen_ai.co2.emissions"
)

// ScalarValue is the data-point payload for counter and sum metrics.
type ScalarValue struct {
	Value float64 `json:"value"`
}

// HistogramValue is the data-point payload for histogram metrics.
type HistogramValue struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}

// DataPoint is one observation inside a metric summary. Value holds a
// ScalarValue for counter/sum metrics and a HistogramValue for
// histograms.
type DataPoint struct {
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes"`
}

// MetricSummary is a named, typed aggregate produced for one run.
type MetricSummary struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Unit       string      `json:"unit,omitempty"`
	DataPoints []DataPoint `json:"data_points"`
}

// Aggregator turns grouped traces and per-test verdicts into metric
// summaries.
type Aggregator struct {
	// CO2Factor is grams of CO2e per thousand tokens. Zero means use
	// CO2GramsPerKiloToken.
	CO2Factor float64
}

// Aggregate walks every trace, counts test-evaluation spans against the
// success lookup, and emits the six run-level summaries. Empty input
// returns nil: a run with no traces produced no measurements, which is
// distinct from measuring zero.
//
// Callers must flush the metric pipeline before extracting; use
// RunContext.CollectMetrics, which enforces that ordering.
func (a Aggregator) Aggregate(traces []*Trace, successByTest map[string]bool) []MetricSummary {
	if len(traces) == 0 {
		return nil
	}

	var (
		totalSuccess   int
		totalToolCalls int64
		totalSteps     int64
		testCount      int
		totalTokens    int64
		totalCost      float64
	)

	for _, tr := range traces {
		// Trust the trace-level rollups rather than re-deriving from spans.
		totalTokens += tr.TotalTokens
		totalCost += tr.TotalCostUSD

		for _, span := range tr.Spans {
			testID, ok := span.Attributes[AttrTestID].(string)
			if !ok || testID == "" {
				continue
			}
			testCount++
			if successByTest[testID] {
				totalSuccess++
			}
			totalToolCalls += attrInt(span.Attributes, AttrToolCalls, 0)
			totalSteps += attrInt(span.Attributes, AttrSteps, 0)
		}
	}

	factor := a.CO2Factor
	if factor == 0 {
		factor = CO2GramsPerKiloToken
	}
	var co2Total float64
	if totalTokens > 0 {
		co2Total = float64(totalTokens) / 1000 * factor
	}

	successRate := 0.0
	if testCount > 0 {
		successRate = round2(float64(totalSuccess) / float64(testCount) * 100)
	}

	return []MetricSummary{
		{
			Name: MetricTestsSuccessful,
			Type: "counter",
			DataPoints: []DataPoint{{
				Value: ScalarValue{Value: float64(totalSuccess)},
				Attributes: map[string]any{
					"total_tests":  testCount,
					"success_rate": successRate,
				},
			}},
		},
		{
			Name: MetricTestsToolCalls,
			Type: "histogram",
			DataPoints: []DataPoint{{
				Value:      histogramValue(totalToolCalls, testCount),
				Attributes: map[string]any{},
			}},
		},
		{
			Name: MetricTestsSteps,
			Type: "histogram",
			DataPoints: []DataPoint{{
				Value:      histogramValue(totalSteps, testCount),
				Attributes: map[string]any{},
			}},
		},
		{
			Name: MetricTokenTotal,
			Type: "sum",
			Unit: "tokens",
			DataPoints: []DataPoint{{
				Value:      ScalarValue{Value: float64(totalTokens)},
				Attributes: map[string]any{},
			}},
		},
		{
			Name: MetricCostTotal,
			Type: "sum",
			Unit: "USD",
			DataPoints: []DataPoint{{
				Value:      ScalarValue{Value: roundN(totalCost, 6)},
				Attributes: map[string]any{},
			}},
		},
		{
			Name: MetricCO2Emissions,
			Type: "sum",
			Unit: "gCO2e",
			DataPoints: []DataPoint{{
				Value:      ScalarValue{Value: roundN(co2Total, 4)},
				Attributes: map[string]any{},
			}},
		},
	}
}

func histogramValue(sum int64, count int) HistogramValue {
	avg := 0.0
	if count > 0 {
		avg = round2(float64(sum) / float64(count))
	}
	return HistogramValue{Sum: float64(sum), Count: count, Avg: avg}
}

func round2(v float64) float64 {
	return roundN(v, 2)
}

func roundN(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
