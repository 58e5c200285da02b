package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// StateStore persists the runtime state.
type StateStore interface {
	// Load reads the last runtime state.
	// Returns os.ErrNotExist if no run has been recorded.
	Load() (*RuntimeState, error)

	// Save replaces the runtime state atomically.
	Save(state *RuntimeState) error
}

// FileStateStore implements StateStore with a JSON file.
type FileStateStore struct {
	fs   fsops.FS
	path string
}

// NewFileStateStore creates a FileStateStore writing to path.
func NewFileStateStore(fs fsops.FS, path string) *FileStateStore {
	return &FileStateStore{fs: fs, path: path}
}

// Load reads the runtime state file.
func (s *FileStateStore) Load() (*RuntimeState, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read runtime state: %w", err)
	}

	var state RuntimeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runtime state: %w", err)
	}

	return &state, nil
}

// Save writes the runtime state atomically.
func (s *FileStateStore) Save(state *RuntimeState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runtime state: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write runtime state: %w", err)
	}

	return nil
}
