// Package persist stores manager state as one JSON file per agent identity.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/statefulmind/recall-go-sdk/memory"
)

// WriteError reports a failed state write. The previously persisted file, if
// any, is still intact: writes go to a temp file that is renamed into place
// only once fully written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persist: write state to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FileStore implements memory.StateStore on the local filesystem. Each agent
// identity maps to <dir>/<agentID>_memory.json holding both tiers' records
// and the base64-encoded index snapshots.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted
// there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the state file path for an agent identity.
func (s *FileStore) Path(agentID string) string {
	return filepath.Join(s.dir, agentID+"_memory.json")
}

// Save atomically replaces the persisted state for agentID.
func (s *FileStore) Save(agentID string, st *memory.State) error {
	path := s.Path(agentID)

	data, err := json.Marshal(st)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+agentID+"_memory-*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Load reads the persisted state for agentID. A missing file wraps
// memory.ErrStateNotFound; a present but undecodable file is a
// *memory.CorruptStateError and is left on disk untouched.
func (s *FileStore) Load(agentID string) (*memory.State, error) {
	path := s.Path(agentID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", memory.ErrStateNotFound, path)
		}
		return nil, &memory.CorruptStateError{Path: path, Err: err}
	}

	var st memory.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, &memory.CorruptStateError{Path: path, Err: err}
	}
	return &st, nil
}
