package bookmarks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MergeStateVersion is bumped when the snapshot layout changes.
const MergeStateVersion = 1

// MergeState is the last converged bookmark tree, persisted between
// runs and used as the common ancestor for the next three-way merge.
// It is the only durable cross-run state the engine keeps.
type MergeState struct {
	Version  int       `json:"version"`
	SyncedAt time.Time `json:"synced_at"`
	Tree     *Tree     `json:"tree"`
}

// LoadMergeState reads the persisted snapshot. A missing file is not an
// error: it returns nil, meaning "first run, no ancestor".
func LoadMergeState(path string) (*MergeState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read merge state: %w", err)
	}
	var state MergeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse merge state %s: %w", path, err)
	}
	if state.Version != MergeStateVersion {
		return nil, fmt.Errorf("merge state %s has unsupported version %d", path, state.Version)
	}
	if state.Tree == nil {
		return nil, fmt.Errorf("merge state %s has no tree", path)
	}
	return &state, nil
}

// SaveMergeState atomically writes the snapshot: the bytes land in a
// temp file in the same directory, then rename over the target.
func SaveMergeState(path string, tree *Tree, syncedAt time.Time) error {
	state := MergeState{
		Version:  MergeStateVersion,
		SyncedAt: syncedAt.UTC(),
		Tree:     tree,
	}
	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merge state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".merge-state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp merge state: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write merge state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync merge state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close merge state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace merge state: %w", err)
	}
	return nil
}
