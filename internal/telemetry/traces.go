package telemetry

// Attribute keys the aggregation pipeline reads from span attributes.
const (
	AttrTokenCount = "llm.token_count.total"
	AttrCostUSD    = "gen_ai.usage.cost.total"
	AttrTestID     = "test.id"
	AttrToolCalls  = "tests.tool_calls"
	AttrSteps      = "tests.steps"
)

// Trace is a set of spans sharing a trace ID, with rollups derived
// from span attributes.
//
// Rollups sum over every span in the trace, parents included. Parent
// spans that already include their children's token or cost totals are
// therefore double counted; the totals are a conservative upper bound.
type Trace struct {
	TraceID         string  `json:"trace_id"`
	RunID           string  `json:"run_id"`
	Spans           []Span  `json:"spans"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
}

// GroupSpans groups spans by trace ID in arrival order and rolls up
// token, duration, and cost totals. Traces are returned in the order
// their trace IDs were first seen.
//
// Spans without a trace ID cannot be grouped; they are skipped and
// counted in the returned anomaly count rather than failing the run.
func GroupSpans(spans []Span, runID string) ([]*Trace, int) {
	byID := make(map[string]*Trace)
	var order []string
	dropped := 0

	for _, span := range spans {
		if span.TraceID == "" {
			dropped++
			continue
		}

		tr, ok := byID[span.TraceID]
		if !ok {
			tr = &Trace{TraceID: span.TraceID, RunID: runID}
			byID[span.TraceID] = tr
			order = append(order, span.TraceID)
		}

		tr.Spans = append(tr.Spans, span)
		if _, ok := span.Attributes[AttrTokenCount]; ok {
			tr.TotalTokens += attrInt(span.Attributes, AttrTokenCount, 0)
		}
		tr.TotalDurationMs += span.DurationMs
		if _, ok := span.Attributes[AttrCostUSD]; ok {
			tr.TotalCostUSD += attrFloat(span.Attributes, AttrCostUSD, 0)
		}
	}

	traces := make([]*Trace, 0, len(order))
	for _, id := range order {
		traces = append(traces, byID[id])
	}
	return traces, dropped
}
