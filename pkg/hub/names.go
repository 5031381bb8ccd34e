// Package hub publishes evaluation runs to remote dataset
// repositories. Each dataset is a plain git repository; the leaderboard
// repo is shared across runs and updated by appending rows.
package hub

import (
	"fmt"
	"time"
)

// DatasetNames are the repository names one run publishes to.
type DatasetNames struct {
	Results     string
	Traces      string
	Metrics     string
	Leaderboard string
}

// GenerateDatasetNames derives the per-run dataset names for a user.
// Result, trace, and metric repos are timestamped per run; the
// leaderboard repo is stable.
func GenerateDatasetNames(username string, now time.Time) DatasetNames {
	timestamp := now.Format("20060102_150405")
	return DatasetNames{
		Results:     fmt.Sprintf("%s/smoltrace-results-%s", username, timestamp),
		Traces:      fmt.Sprintf("%s/smoltrace-traces-%s", username, timestamp),
		Metrics:     fmt.Sprintf("%s/smoltrace-metrics-%s", username, timestamp),
		Leaderboard: fmt.Sprintf("%s/smoltrace-leaderboard", username),
	}
}
