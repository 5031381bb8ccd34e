package utils

import (
	"path/filepath"
	"testing"
)

func TestFileOperations(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("EnsureDir", func(t *testing.T) {
		path := filepath.Join(tmpDir, "runs", "nested", "dir")
		if err := EnsureDir(path); err != nil {
			t.Errorf("EnsureDir() error = %v", err)
		}
		if !DirExists(path) {
			t.Error("Directory was not created")
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(tmpDir, "deep", "results.txt")
		if err := WriteFile(path, []byte("test content")); err != nil {
			t.Errorf("WriteFile() error = %v", err)
		}
		if !FileExists(path) {
			t.Error("File was not created")
		}
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		type record struct {
			RunID string `json:"run_id"`
			Total int    `json:"total"`
		}
		path := filepath.Join(tmpDir, "out", "metadata.json")

		if err := WriteJSON(path, record{RunID: "r1", Total: 3}); err != nil {
			t.Fatalf("WriteJSON() error = %v", err)
		}

		var got record
		if err := ReadJSON(path, &got); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if got.RunID != "r1" || got.Total != 3 {
			t.Errorf("round trip = %+v", got)
		}
	})

	t.Run("ReadJSONMissingFile", func(t *testing.T) {
		var v map[string]any
		if err := ReadJSON(filepath.Join(tmpDir, "absent.json"), &v); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ListDir", func(t *testing.T) {
		testDir := filepath.Join(tmpDir, "listtest")
		WriteFile(filepath.Join(testDir, "file1.txt"), []byte("content1"))
		WriteFile(filepath.Join(testDir, "file2.txt"), []byte("content2"))

		entries, err := ListDir(testDir)
		if err != nil {
			t.Errorf("ListDir() error = %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("ListDir() = %d entries, want 2", len(entries))
		}
	})
}
