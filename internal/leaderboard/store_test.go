package leaderboard

import (
	"path/filepath"
	"testing"
)

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "leaderboard.json"))
	rows, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v for missing file", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestStoreAppend(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "leaderboard.json"))

	first := Row{RunID: "run-1", Model: "model-a", SuccessRate: 80}
	second := Row{RunID: "run-2", Model: "model-b", SuccessRate: 95}

	if err := store.Append(first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rows, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].RunID != "run-1" || rows[1].RunID != "run-2" {
		t.Errorf("row order = %q, %q", rows[0].RunID, rows[1].RunID)
	}
	if rows[1].SuccessRate != 95 {
		t.Errorf("rows[1].SuccessRate = %v", rows[1].SuccessRate)
	}
}

func TestStoreAppendPreservesNilGPU(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "leaderboard.json"))

	util := 55.5
	if err := store.Append(Row{RunID: "gpu", GPUUtilizationAvg: &util}); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(Row{RunID: "api"}); err != nil {
		t.Fatal(err)
	}

	rows, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].GPUUtilizationAvg == nil || *rows[0].GPUUtilizationAvg != 55.5 {
		t.Errorf("GPU row lost its measurement: %+v", rows[0])
	}
	if rows[1].GPUUtilizationAvg != nil {
		t.Errorf("API row gained a GPU measurement: %+v", rows[1])
	}
}
