package leaderboard

import (
	"fmt"
	"os"

	"github.com/smoltrace/smoltrace/internal/utils"
)

// Store keeps leaderboard rows in one JSON file. Updates follow
// read-existing, append, write-whole; concurrent writers are
// last-write-wins.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads all rows. A missing file is an empty leaderboard.
func (s *Store) Load() ([]Row, error) {
	var rows []Row
	if err := utils.ReadJSON(s.path, &rows); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return rows, nil
}

// Append adds a row and rewrites the whole file.
func (s *Store) Append(row Row) error {
	rows, err := s.Load()
	if err != nil {
		return err
	}
	rows = append(rows, row)
	if err := utils.WriteJSON(s.path, rows); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return nil
}
