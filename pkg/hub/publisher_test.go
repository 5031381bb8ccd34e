package hub

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"

	"github.com/smoltrace/smoltrace/internal/leaderboard"
	"github.com/smoltrace/smoltrace/internal/utils"
)

func testPublisher(t *testing.T) *Publisher {
	t.Helper()
	return NewPublisher(Config{
		// Unreachable remote so clones fall back to local init, and no
		// token so pushes are skipped. Everything stays on disk.
		BaseURL: filepath.Join(t.TempDir(), "no-such-remote"),
		WorkDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})
}

func TestPublishRun(t *testing.T) {
	p := testPublisher(t)

	runDir := t.TempDir()
	for _, f := range []string{"results.json", "metrics.json"} {
		if err := os.WriteFile(filepath.Join(runDir, f), []byte(`{"run_id":"run-abc"}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	names := DatasetNames{
		Results: "alice/smoltrace-results-20250314_092653",
		Traces:  "alice/smoltrace-traces-20250314_092653",
		Metrics: "alice/smoltrace-metrics-20250314_092653",
	}
	info := RunInfo{RunID: "run-abc", Model: "org/test-model"}
	if err := p.PublishRun(context.Background(), names, runDir, info); err != nil {
		t.Fatalf("PublishRun failed: %v", err)
	}

	resultsClone := filepath.Join(p.cfg.WorkDir, "smoltrace-results-20250314_092653")
	if !utils.FileExists(filepath.Join(resultsClone, "results.json")) {
		t.Error("results.json not copied into dataset clone")
	}

	manifest, err := LoadManifest(filepath.Join(resultsClone, ManifestFileName))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if manifest.Dataset.Kind != "results" || manifest.Dataset.RunID != "run-abc" {
		t.Errorf("unexpected manifest: %+v", manifest.Dataset)
	}

	repo, err := git.PlainOpen(resultsClone)
	if err != nil {
		t.Fatalf("clone is not a git repository: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("no commits in clone: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatal(err)
	}
	if commit.Message != "Add results for run run-abc" {
		t.Errorf("unexpected commit message: %q", commit.Message)
	}

	// traces.json did not exist in the run dir, so no traces clone.
	if utils.DirExists(filepath.Join(p.cfg.WorkDir, "smoltrace-traces-20250314_092653")) {
		t.Error("traces dataset should be skipped when traces.json is absent")
	}
}

func TestUpdateLeaderboard(t *testing.T) {
	p := testPublisher(t)

	rate := 66.67
	row := leaderboard.Row{
		RunID:       "run-abc",
		Model:       "org/test-model",
		AgentType:   "tool",
		SuccessRate: rate,
	}
	if err := p.UpdateLeaderboard(context.Background(), "alice/smoltrace-leaderboard", row); err != nil {
		t.Fatalf("UpdateLeaderboard failed: %v", err)
	}

	clone := filepath.Join(p.cfg.WorkDir, "smoltrace-leaderboard")
	var rows []leaderboard.Row
	if err := utils.ReadJSON(filepath.Join(clone, LeaderboardFileName), &rows); err != nil {
		t.Fatalf("leaderboard file not written: %v", err)
	}
	if len(rows) != 1 || rows[0].Model != "org/test-model" {
		t.Errorf("unexpected rows: %+v", rows)
	}

	repo, err := git.PlainOpen(clone)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatal(err)
	}
	if commit.Message != "Update: org/test-model tool" {
		t.Errorf("unexpected commit message: %q", commit.Message)
	}
}
