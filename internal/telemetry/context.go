package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// flushTimeout bounds the metric flush performed before extraction.
const flushTimeout = 30 * time.Second

// RunConfig configures a RunContext.
type RunConfig struct {
	// ServiceName identifies the emitting process in span resources.
	ServiceName string

	// RunID identifies the evaluation invocation. Generated when empty.
	RunID string

	// EnableGPUMetrics turns on collection of the resource-utilization
	// time series. Leave off for API-served models.
	EnableGPUMetrics bool

	// CO2Factor overrides CO2GramsPerKiloToken when non-zero.
	CO2Factor float64

	Logger zerolog.Logger
}

// MetricData is the complete metric output of one run: the GPU
// time-series batches plus the trace-derived aggregate summaries.
type MetricData struct {
	RunID           string                 `json:"run_id"`
	ResourceMetrics []ResourceMetricsBatch `json:"resourceMetrics"`
	Aggregates      []MetricSummary        `json:"aggregates"`
}

// RunContext owns every telemetry handle for one evaluation run: the
// tracer and meter providers, the span recorder, and the run identity.
// Providers are never installed globally; cross-run contamination is
// structurally impossible because each run builds its own context.
type RunContext struct {
	RunID string

	recorder *Recorder
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader

	gpuEnabled bool
	co2Factor  float64
	logger     zerolog.Logger
}

// NewRunContext builds the per-run telemetry context. Spans emitted
// through Tracer() land synchronously in the in-memory recorder.
func NewRunContext(cfg RunConfig) *RunContext {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "smoltrace-eval"
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	rec := NewRecorder(cfg.Logger)

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		attribute.String("run.id", runID),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(NewExporter(rec))),
		sdktrace.WithResource(res),
	)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	return &RunContext{
		RunID:      runID,
		recorder:   rec,
		tp:         tp,
		mp:         mp,
		reader:     reader,
		gpuEnabled: cfg.EnableGPUMetrics,
		co2Factor:  cfg.CO2Factor,
		logger:     cfg.Logger,
	}
}

// Tracer returns the run-scoped tracer.
func (rc *RunContext) Tracer() trace.Tracer {
	return rc.tp.Tracer("github.com/smoltrace/smoltrace/internal/telemetry")
}

// Meter returns the run-scoped meter for instrument registration.
func (rc *RunContext) Meter() metric.Meter {
	return rc.mp.Meter("github.com/smoltrace/smoltrace/internal/telemetry")
}

// Recorder exposes the span store for direct sink use.
func (rc *RunContext) Recorder() *Recorder {
	return rc.recorder
}

// Traces groups every recorded span into traces carrying this run's ID.
// The second return value counts spans dropped for missing trace IDs.
func (rc *RunContext) Traces() ([]*Trace, int) {
	traces, dropped := GroupSpans(rc.recorder.FinishedSpans(), rc.RunID)
	if dropped > 0 {
		rc.logger.Warn().Int("count", dropped).Msg("spans without trace IDs were dropped from grouping")
	}
	return traces, dropped
}

// CollectMetrics flushes the metric pipeline, collects the GPU time
// series, and aggregates trace metrics. Flushing before the read is a
// precondition of correct extraction: skipping it silently under-reports
// buffered instruments, so this method is the only metric-extraction
// entry point.
func (rc *RunContext) CollectMetrics(ctx context.Context, traces []*Trace, successByTest map[string]bool) MetricData {
	data := MetricData{
		RunID:           rc.RunID,
		ResourceMetrics: []ResourceMetricsBatch{},
		Aggregates:      []MetricSummary{},
	}

	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := rc.mp.ForceFlush(flushCtx); err != nil {
		rc.logger.Warn().Err(err).Msg("metric flush failed; extracted metrics may be incomplete")
	}

	if rc.gpuEnabled {
		var rm metricdata.ResourceMetrics
		if err := rc.reader.Collect(flushCtx, &rm); err != nil {
			rc.logger.Warn().Err(err).Msg("GPU metric collection failed")
		} else {
			batch := BatchFromMetricData(rm)
			if len(batch.ScopeMetrics) > 0 {
				data.ResourceMetrics = append(data.ResourceMetrics, batch)
			}
		}
	}

	agg := Aggregator{CO2Factor: rc.co2Factor}
	if summaries := agg.Aggregate(traces, successByTest); summaries != nil {
		data.Aggregates = summaries
	}

	return data
}

// Shutdown tears down the providers. Call after extraction; spans
// already recorded remain readable.
func (rc *RunContext) Shutdown(ctx context.Context) error {
	var errs []error
	if err := rc.tp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := rc.mp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
