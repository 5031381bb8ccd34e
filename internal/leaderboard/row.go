// Package leaderboard computes and stores per-run leaderboard rows
// summarizing evaluation results, trace rollups, and resource metrics.
package leaderboard

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/smoltrace/smoltrace/internal/eval"
	"github.com/smoltrace/smoltrace/internal/telemetry"
)

// Row is one leaderboard entry. GPU fields are nil for API-served
// models; a measured zero is kept distinct from "not measured".
type Row struct {
	// Identification
	RunID          string `json:"run_id"`
	Model          string `json:"model"`
	AgentType      string `json:"agent_type"`
	Provider       string `json:"provider"`
	EvaluationDate string `json:"evaluation_date"`
	SubmittedBy    string `json:"submitted_by"`

	// Dataset references
	ResultsDataset string `json:"results_dataset"`
	TracesDataset  string `json:"traces_dataset"`
	MetricsDataset string `json:"metrics_dataset"`
	DatasetUsed    string `json:"dataset_used"`

	// Aggregate statistics
	NumTests          int     `json:"num_tests"`
	SuccessfulTests   int     `json:"successful_tests"`
	FailedTests       int     `json:"failed_tests"`
	SuccessRate       float64 `json:"success_rate"`
	AvgSteps          float64 `json:"avg_steps"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	TotalDurationMs   float64 `json:"total_duration_ms"`
	TotalTokens       int64   `json:"total_tokens"`
	AvgTokensPerTest  int64   `json:"avg_tokens_per_test"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	AvgCostPerTestUSD float64 `json:"avg_cost_per_test_usd"`

	// Environmental impact
	CO2EmissionsG float64 `json:"co2_emissions_g"`

	// GPU metrics (null for API models)
	GPUUtilizationAvg *float64 `json:"gpu_utilization_avg"`
	GPUUtilizationMax *float64 `json:"gpu_utilization_max"`
	GPUMemoryAvgMiB   *float64 `json:"gpu_memory_avg_mib"`
	GPUMemoryMaxMiB   *float64 `json:"gpu_memory_max_mib"`
	GPUTemperatureAvg *float64 `json:"gpu_temperature_avg"`
	GPUTemperatureMax *float64 `json:"gpu_temperature_max"`
	GPUPowerAvgW      *float64 `json:"gpu_power_avg_w"`

	Notes string `json:"notes"`
}

// RowInput carries everything ComputeRow needs about a run.
type RowInput struct {
	Model       string
	Provider    string
	AgentType   string // tool, code, or both
	RunID       string
	SubmittedBy string

	DatasetUsed    string
	ResultsDataset string
	TracesDataset  string
	MetricsDataset string

	Results *eval.ResultSet
	Traces  []*telemetry.Trace
	Metrics telemetry.MetricData
}

// ComputeRow derives one leaderboard row from a run. The agent-type
// filter selects which outcomes count; "both" takes the union. All
// averages are guarded against zero tests.
func ComputeRow(in RowInput) Row {
	outcomes := in.Results.Filter(in.AgentType)
	numTests := len(outcomes)

	successful := 0
	totalSteps := 0
	for _, o := range outcomes {
		if o.Success {
			successful++
		}
		totalSteps += o.Steps
	}

	successRate := 0.0
	avgSteps := 0.0
	if numTests > 0 {
		successRate = float64(successful) / float64(numTests) * 100
		avgSteps = float64(totalSteps) / float64(numTests)
	}

	var totalTokens int64
	var totalDurationMs, totalCostUSD float64
	for _, tr := range in.Traces {
		totalTokens += tr.TotalTokens
		totalDurationMs += tr.TotalDurationMs
		totalCostUSD += tr.TotalCostUSD
	}

	avgDurationMs := 0.0
	avgTokens := int64(0)
	avgCost := 0.0
	if numTests > 0 {
		avgDurationMs = totalDurationMs / float64(numTests)
		avgTokens = totalTokens / int64(numTests)
		avgCost = totalCostUSD / float64(numTests)
	}

	totalCO2 := co2FromAggregates(in.Metrics.Aggregates)
	gpu := telemetry.AggregateGPUMetrics(in.Metrics.ResourceMetrics)

	submittedBy := in.SubmittedBy
	if submittedBy == "" {
		submittedBy = "unknown"
	}

	now := time.Now()
	return Row{
		RunID:          in.RunID,
		Model:          in.Model,
		AgentType:      in.AgentType,
		Provider:       in.Provider,
		EvaluationDate: now.Format(time.RFC3339),
		SubmittedBy:    submittedBy,

		ResultsDataset: in.ResultsDataset,
		TracesDataset:  in.TracesDataset,
		MetricsDataset: in.MetricsDataset,
		DatasetUsed:    in.DatasetUsed,

		NumTests:          numTests,
		SuccessfulTests:   successful,
		FailedTests:       numTests - successful,
		SuccessRate:       round2(successRate),
		AvgSteps:          round2(avgSteps),
		AvgDurationMs:     round2(avgDurationMs),
		TotalDurationMs:   round2(totalDurationMs),
		TotalTokens:       totalTokens,
		AvgTokensPerTest:  avgTokens,
		TotalCostUSD:      roundN(totalCostUSD, 6),
		AvgCostPerTestUSD: roundN(avgCost, 6),

		CO2EmissionsG: roundN(totalCO2, 4),

		GPUUtilizationAvg: round2Ptr(gpu.UtilizationAvg),
		GPUUtilizationMax: round2Ptr(gpu.UtilizationMax),
		GPUMemoryAvgMiB:   round2Ptr(gpu.MemoryAvg),
		GPUMemoryMaxMiB:   round2Ptr(gpu.MemoryMax),
		GPUTemperatureAvg: round2Ptr(gpu.TemperatureAvg),
		GPUTemperatureMax: round2Ptr(gpu.TemperatureMax),
		GPUPowerAvgW:      round2Ptr(gpu.PowerAvg),

		Notes: fmt.Sprintf("Evaluation on %s; %d tests", now.Format("2006-01-02"), numTests),
	}
}

// co2FromAggregates sums the emissions summary's data points. Values
// survive JSON round trips as maps, so coercion stays defensive.
func co2FromAggregates(aggregates []telemetry.MetricSummary) float64 {
	total := 0.0
	for _, m := range aggregates {
		if m.Name != telemetry.MetricCO2Emissions {
			continue
		}
		for _, dp := range m.DataPoints {
			total += coerceValue(dp.Value)
		}
	}
	return total
}

func coerceValue(v any) float64 {
	switch val := v.(type) {
	case telemetry.ScalarValue:
		return val.Value
	case map[string]any:
		return coerceScalar(val["value"])
	default:
		return coerceScalar(v)
	}
}

func coerceScalar(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func round2(v float64) float64 {
	return roundN(v, 2)
}

func roundN(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
