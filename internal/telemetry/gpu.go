package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// GPU metric names emitted by the resource-utilization instrumentation.
const (
	MetricGPUUtilization = "gen_ai.gpu.utilization"
	MetricGPUMemoryUsed  = "gen_ai.gpu.memory.used"
	MetricGPUTemperature = "gen_ai.gpu.temperature"
	MetricGPUPower       = "gen_ai.gpu.power"
)

// ResourceMetricsBatch mirrors the OTLP resourceMetrics nesting for one
// collection interval.
type ResourceMetricsBatch struct {
	ScopeMetrics []ScopeMetrics `json:"scopeMetrics"`
}

// ScopeMetrics is one instrumentation scope's metrics within a batch.
type ScopeMetrics struct {
	Metrics []GPUMetric `json:"metrics"`
}

// GPUMetric is a named time series; data points live under either the
// gauge or the sum envelope.
type GPUMetric struct {
	Name  string        `json:"name"`
	Gauge *MetricPoints `json:"gauge,omitempty"`
	Sum   *MetricPoints `json:"sum,omitempty"`
}

// MetricPoints wraps the data-point list of a gauge or sum.
type MetricPoints struct {
	DataPoints []GPUDataPoint `json:"dataPoints"`
}

// GPUDataPoint is a single observation. The OTLP JSON encoding writes
// integer values as strings, hence AsInt's type.
type GPUDataPoint struct {
	AsInt        string   `json:"asInt,omitempty"`
	AsDouble     *float64 `json:"asDouble,omitempty"`
	TimeUnixNano string   `json:"timeUnixNano,omitempty"`
}

// GPUAggregate holds avg/max pairs per GPU metric kind. Nil means no
// samples were observed (API-served models); it is never conflated
// with a measured zero.
type GPUAggregate struct {
	UtilizationAvg *float64 `json:"utilization_avg"`
	UtilizationMax *float64 `json:"utilization_max"`
	MemoryAvg      *float64 `json:"memory_avg"`
	MemoryMax      *float64 `json:"memory_max"`
	TemperatureAvg *float64 `json:"temperature_avg"`
	TemperatureMax *float64 `json:"temperature_max"`
	PowerAvg       *float64 `json:"power_avg"`
}

// AggregateGPUMetrics flattens resource→scope→metric→data-point batches
// into per-metric avg/max aggregates. Non-numeric data points are
// skipped.
func AggregateGPUMetrics(batches []ResourceMetricsBatch) GPUAggregate {
	if len(batches) == 0 {
		return GPUAggregate{}
	}

	byName := make(map[string][]float64)
	for _, rm := range batches {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				var points []GPUDataPoint
				if m.Gauge != nil {
					points = m.Gauge.DataPoints
				} else if m.Sum != nil {
					points = m.Sum.DataPoints
				}
				for _, dp := range points {
					if v, ok := dp.numericValue(); ok {
						byName[m.Name] = append(byName[m.Name], v)
					}
				}
			}
		}
	}

	return GPUAggregate{
		UtilizationAvg: safeAvg(byName[MetricGPUUtilization]),
		UtilizationMax: safeMax(byName[MetricGPUUtilization]),
		MemoryAvg:      safeAvg(byName[MetricGPUMemoryUsed]),
		MemoryMax:      safeMax(byName[MetricGPUMemoryUsed]),
		TemperatureAvg: safeAvg(byName[MetricGPUTemperature]),
		TemperatureMax: safeMax(byName[MetricGPUTemperature]),
		PowerAvg:       safeAvg(byName[MetricGPUPower]),
	}
}

func (dp GPUDataPoint) numericValue() (float64, bool) {
	if dp.AsInt != "" {
		v := asInt64(dp.AsInt)
		return float64(v), true
	}
	if dp.AsDouble != nil {
		return *dp.AsDouble, true
	}
	return 0, false
}

func safeAvg(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

func safeMax(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return &max
}

// BatchFromMetricData converts one SDK collection into the OTLP-shaped
// batch the aggregator understands. Only gauge and sum instruments of
// int64 or float64 carry over; other aggregations have no place in the
// GPU time series.
func BatchFromMetricData(rm metricdata.ResourceMetrics) ResourceMetricsBatch {
	batch := ResourceMetricsBatch{}
	for _, sm := range rm.ScopeMetrics {
		scope := ScopeMetrics{}
		for _, m := range sm.Metrics {
			metric := GPUMetric{Name: m.Name}
			switch data := m.Data.(type) {
			case metricdata.Gauge[int64]:
				metric.Gauge = intPoints(data.DataPoints)
			case metricdata.Gauge[float64]:
				metric.Gauge = floatPoints(data.DataPoints)
			case metricdata.Sum[int64]:
				metric.Sum = intPoints(data.DataPoints)
			case metricdata.Sum[float64]:
				metric.Sum = floatPoints(data.DataPoints)
			default:
				continue
			}
			scope.Metrics = append(scope.Metrics, metric)
		}
		if len(scope.Metrics) > 0 {
			batch.ScopeMetrics = append(batch.ScopeMetrics, scope)
		}
	}
	return batch
}

func intPoints(dps []metricdata.DataPoint[int64]) *MetricPoints {
	mp := &MetricPoints{}
	for _, dp := range dps {
		mp.DataPoints = append(mp.DataPoints, GPUDataPoint{
			AsInt:        formatInt(dp.Value),
			TimeUnixNano: formatInt(dp.Time.UnixNano()),
		})
	}
	return mp
}

func floatPoints(dps []metricdata.DataPoint[float64]) *MetricPoints {
	mp := &MetricPoints{}
	for _, dp := range dps {
		v := dp.Value
		mp.DataPoints = append(mp.DataPoints, GPUDataPoint{
			AsDouble:     &v,
			TimeUnixNano: formatInt(dp.Time.UnixNano()),
		})
	}
	return mp
}
