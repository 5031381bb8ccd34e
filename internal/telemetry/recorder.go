package telemetry

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// StatusCode is the canonical span status.
type StatusCode string

const (
	StatusUnset StatusCode = "UNSET"
	StatusOK    StatusCode = "OK"
	StatusError StatusCode = "ERROR"
)

// statusFromCode maps the numeric OTel status code onto the canonical
// set. Unrecognized codes map to UNSET.
func statusFromCode(code int64) StatusCode {
	switch code {
	case 1:
		return StatusOK
	case 2:
		return StatusError
	default:
		return StatusUnset
	}
}

// Status is a span's final status.
type Status struct {
	Code        StatusCode `json:"code"`
	Description string     `json:"description,omitempty"`
}

// Event is a timestamped annotation on a span.
type Event struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
	Timestamp  int64          `json:"timestamp"`
}

// Span is one finished unit of work in canonical form. Spans are
// created after the work completes and are immutable thereafter.
type Span struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Name         string         `json:"name"`
	StartTime    int64          `json:"start_time"`
	EndTime      int64          `json:"end_time"`
	DurationMs   float64        `json:"duration_ms"`
	Attributes   map[string]any `json:"attributes"`
	Events       []Event        `json:"events,omitempty"`
	Status       Status         `json:"status"`
	Kind         string         `json:"kind"`
	Resource     map[string]any `json:"resource,omitempty"`
}

// RawSpan is the wire shape accepted by the recorder's sink. Attribute
// payloads may arrive in any of the shapes NormalizeAttrs supports.
type RawSpan struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Name         string
	StartTime    int64
	EndTime      int64
	Attributes   any
	Events       []RawEvent
	StatusCode   int64
	StatusDesc   string
	Kind         string
	Resource     any
}

// RawEvent is an event as emitted by the execution harness.
type RawEvent struct {
	Name       string
	Attributes any
	Timestamp  int64
}

// Recorder accumulates finished spans for the lifetime of one run.
// The store is append-only; recorded spans are never mutated.
type Recorder struct {
	mu     sync.Mutex
	spans  []Span
	logger zerolog.Logger
}

// NewRecorder creates an empty span recorder.
func NewRecorder(logger zerolog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// OnSpanFinished records one finished unit of work in canonical form
// and returns the recorded span.
func (r *Recorder) OnSpanFinished(raw RawSpan) Span {
	span := r.buildSpan(raw)
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
	return span
}

// FinishedSpans returns a snapshot of every recorded span, in arrival
// order.
func (r *Recorder) FinishedSpans() []Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Len reports how many spans have been recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

func (r *Recorder) buildSpan(raw RawSpan) Span {
	attrs := DecodeAttrs(raw.Attributes)
	if len(attrs.Dropped) > 0 {
		r.logger.Warn().
			Str("span", raw.Name).
			Int("dropped", len(attrs.Dropped)).
			Msg("some span attributes failed to decode")
	}

	span := Span{
		TraceID:      raw.TraceID,
		SpanID:       raw.SpanID,
		ParentSpanID: raw.ParentSpanID,
		Name:         raw.Name,
		StartTime:    raw.StartTime,
		EndTime:      raw.EndTime,
		DurationMs:   durationMs(raw.StartTime, raw.EndTime),
		Attributes:   attrs.Attrs,
		Status: Status{
			Code:        statusFromCode(raw.StatusCode),
			Description: raw.StatusDesc,
		},
		Kind:     bareKind(raw.Kind),
		Resource: NormalizeAttrs(raw.Resource),
	}

	for _, e := range raw.Events {
		span.Events = append(span.Events, Event{
			Name:       e.Name,
			Attributes: NormalizeAttrs(e.Attributes),
			Timestamp:  e.Timestamp,
		})
	}

	return span
}

// durationMs derives the span duration in milliseconds from nanosecond
// timestamps. Missing timestamps or end-before-start both yield 0.
func durationMs(start, end int64) float64 {
	if start == 0 || end == 0 || end < start {
		return 0
	}
	return float64(end-start) / 1e6
}

// bareKind strips any type-name prefix from a span kind, so
// "SpanKind.INTERNAL" and "INTERNAL" both store as "INTERNAL".
func bareKind(kind string) string {
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return strings.ToUpper(kind)
}

// Exporter feeds spans from an OpenTelemetry tracer into a Recorder.
// Attach it with a SimpleSpanProcessor so spans land synchronously as
// they finish.
type Exporter struct {
	rec *Recorder
}

// NewExporter creates a span exporter backed by the given recorder.
func NewExporter(rec *Recorder) *Exporter {
	return &Exporter{rec: rec}
}

// ExportSpans converts each finished SDK span into canonical form.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		e.rec.OnSpanFinished(fromReadOnlySpan(s))
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter. The recorder keeps its
// spans; there is nothing to release.
func (e *Exporter) Shutdown(ctx context.Context) error {
	return nil
}

func fromReadOnlySpan(s sdktrace.ReadOnlySpan) RawSpan {
	raw := RawSpan{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		StartTime:  s.StartTime().UnixNano(),
		EndTime:    s.EndTime().UnixNano(),
		StatusCode: canonicalStatusCode(s.Status().Code),
		StatusDesc: s.Status().Description,
		Kind:       s.SpanKind().String(),
	}
	if s.Parent().IsValid() {
		raw.ParentSpanID = s.Parent().SpanID().String()
	}

	attrs := make(map[string]any, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	raw.Attributes = attrs

	if res := s.Resource(); res != nil {
		resAttrs := make(map[string]any)
		for _, kv := range res.Attributes() {
			resAttrs[string(kv.Key)] = kv.Value.AsInterface()
		}
		raw.Resource = resAttrs
	}

	for _, ev := range s.Events() {
		evAttrs := make(map[string]any, len(ev.Attributes))
		for _, kv := range ev.Attributes {
			evAttrs[string(kv.Key)] = kv.Value.AsInterface()
		}
		raw.Events = append(raw.Events, RawEvent{
			Name:       ev.Name,
			Attributes: evAttrs,
			Timestamp:  ev.Time.UnixNano(),
		})
	}

	return raw
}

// canonicalStatusCode maps the Go SDK's codes.Code values (where
// Error is 1 and Ok is 2) onto the canonical 0=UNSET/1=OK/2=ERROR
// numbering used by the recorder.
func canonicalStatusCode(c codes.Code) int64 {
	switch c {
	case codes.Ok:
		return 1
	case codes.Error:
		return 2
	default:
		return 0
	}
}

var _ sdktrace.SpanExporter = (*Exporter)(nil)
