package bookmarks

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMergeState_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merge-state.json")

	tree := tree(folder("Work", url("a", "https://a.com/", 1)))
	syncedAt := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	if err := SaveMergeState(path, tree, syncedAt); err != nil {
		t.Fatalf("SaveMergeState() error = %v", err)
	}

	state, err := LoadMergeState(path)
	if err != nil {
		t.Fatalf("LoadMergeState() error = %v", err)
	}
	if state == nil {
		t.Fatal("LoadMergeState() = nil for existing state")
	}
	if !state.SyncedAt.Equal(syncedAt) {
		t.Errorf("synced_at = %v, want %v", state.SyncedAt, syncedAt)
	}
	if !state.Tree.Equal(tree) {
		t.Error("round-tripped tree differs")
	}
}

func TestLoadMergeState_MissingIsFirstRun(t *testing.T) {
	state, err := LoadMergeState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadMergeState() error = %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil on first run", state)
	}
}

func TestLoadMergeState_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merge-state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMergeState(path); err == nil {
		t.Error("LoadMergeState() = nil error for malformed state")
	}
}

func TestLoadMergeState_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merge-state.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "tree": {"roots": {}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMergeState(path); err == nil {
		t.Error("LoadMergeState() = nil error for unsupported version")
	}
}
