package hub

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ManifestFileName is the manifest written into every dataset repo.
const ManifestFileName = "smoltrace-dataset.toml"

// Manifest represents the smoltrace-dataset.toml file structure.
type Manifest struct {
	Dataset DatasetInfo `toml:"dataset"`
}

// DatasetInfo describes what a dataset repository holds.
type DatasetInfo struct {
	Name      string `toml:"name"`
	Kind      string `toml:"kind"` // results, traces, metrics, leaderboard
	RunID     string `toml:"run_id,omitempty"`
	Model     string `toml:"model,omitempty"`
	CreatedAt string `toml:"created_at"`
}

// WriteManifest writes the manifest to path.
func WriteManifest(path string, m Manifest) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
