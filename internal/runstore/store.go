// Package runstore persists evaluation runs to timestamped local
// directories and loads them back for the trace and leaderboard
// commands.
package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/smoltrace/smoltrace/internal/eval"
	"github.com/smoltrace/smoltrace/internal/leaderboard"
	"github.com/smoltrace/smoltrace/internal/telemetry"
	"github.com/smoltrace/smoltrace/internal/utils"
)

// DefaultBaseDir is where runs are stored relative to the working
// directory.
const DefaultBaseDir = ".smoltrace/runs"

// File names inside a run directory.
const (
	resultsFile     = "results.json"
	tracesFile      = "traces.json"
	metricsFile     = "metrics.json"
	leaderboardFile = "leaderboard_row.json"
	metadataFile    = "metadata.json"
)

// Metadata summarizes one stored run.
type Metadata struct {
	RunID       string  `json:"run_id"`
	Model       string  `json:"model"`
	AgentType   string  `json:"agent_type"`
	Provider    string  `json:"provider"`
	DatasetUsed string  `json:"dataset_used"`
	Timestamp   string  `json:"timestamp"`
	NumResults  int     `json:"num_results"`
	NumTraces   int     `json:"num_traces"`
	SuccessRate float64 `json:"success_rate"`

	// Dir is the run directory name, set on load.
	Dir string `json:"-"`
}

// RunData is one fully loaded run.
type RunData struct {
	Metadata Metadata
	Outcomes []eval.TestOutcome
	Traces   []*telemetry.Trace
	Metrics  telemetry.MetricData
	Row      leaderboard.Row
}

// Store reads and writes run directories under one base path.
type Store struct {
	baseDir string
}

// NewStore creates a run store. An empty baseDir uses DefaultBaseDir.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &Store{baseDir: baseDir}
}

// SaveRun writes one run to a new timestamped directory and returns
// its path.
func (s *Store) SaveRun(results *eval.ResultSet, traces []*telemetry.Trace, metrics telemetry.MetricData, row leaderboard.Row, meta Metadata) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	dirName := fmt.Sprintf("%s_%s_%s", sanitizeModelName(meta.Model), meta.AgentType, timestamp)
	runDir := filepath.Join(s.baseDir, dirName)

	if err := utils.EnsureDir(runDir); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	outcomes := results.All()
	if err := utils.WriteJSON(filepath.Join(runDir, resultsFile), outcomes); err != nil {
		return "", err
	}
	if len(traces) > 0 {
		if err := utils.WriteJSON(filepath.Join(runDir, tracesFile), traces); err != nil {
			return "", err
		}
	}
	if err := utils.WriteJSON(filepath.Join(runDir, metricsFile), metrics); err != nil {
		return "", err
	}
	if err := utils.WriteJSON(filepath.Join(runDir, leaderboardFile), row); err != nil {
		return "", err
	}

	meta.Timestamp = timestamp
	meta.NumResults = len(outcomes)
	meta.NumTraces = len(traces)
	meta.SuccessRate = results.SuccessRate()
	if err := utils.WriteJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	return runDir, nil
}

// ListRuns returns the metadata of every stored run, newest first.
// Directories without readable metadata are skipped.
func (s *Store) ListRuns() ([]Metadata, error) {
	entries, err := utils.ListDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var runs []Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var meta Metadata
		if err := utils.ReadJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		meta.Dir = entry.Name()
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp > runs[j].Timestamp
	})
	return runs, nil
}

// LoadRun loads a run by directory name or run ID. An empty id loads
// the latest run.
func (s *Store) LoadRun(id string) (*RunData, error) {
	meta, err := s.findRun(id)
	if err != nil {
		return nil, err
	}
	runDir := filepath.Join(s.baseDir, meta.Dir)

	data := &RunData{Metadata: meta}
	if err := utils.ReadJSON(filepath.Join(runDir, resultsFile), &data.Outcomes); err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	if utils.FileExists(filepath.Join(runDir, tracesFile)) {
		if err := utils.ReadJSON(filepath.Join(runDir, tracesFile), &data.Traces); err != nil {
			return nil, fmt.Errorf("failed to load traces: %w", err)
		}
	}
	if utils.FileExists(filepath.Join(runDir, metricsFile)) {
		if err := utils.ReadJSON(filepath.Join(runDir, metricsFile), &data.Metrics); err != nil {
			return nil, fmt.Errorf("failed to load metrics: %w", err)
		}
	}
	if utils.FileExists(filepath.Join(runDir, leaderboardFile)) {
		if err := utils.ReadJSON(filepath.Join(runDir, leaderboardFile), &data.Row); err != nil {
			return nil, fmt.Errorf("failed to load leaderboard row: %w", err)
		}
	}

	return data, nil
}

func (s *Store) findRun(id string) (Metadata, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return Metadata{}, err
	}
	if len(runs) == 0 {
		return Metadata{}, fmt.Errorf("no runs stored under %s", s.baseDir)
	}
	if id == "" {
		return runs[0], nil
	}
	for _, meta := range runs {
		if meta.Dir == id || meta.RunID == id {
			return meta, nil
		}
	}
	return Metadata{}, fmt.Errorf("run not found: %s", id)
}

// sanitizeModelName makes a model identifier safe as a directory name.
func sanitizeModelName(model string) string {
	model = strings.ReplaceAll(model, "/", "_")
	return strings.ReplaceAll(model, ":", "_")
}
