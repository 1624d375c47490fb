package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/browserpair/bpsync/internal/profile"
	"github.com/browserpair/bpsync/internal/session"
)

// LoadSession reads a profile's open-tab snapshot. A missing store
// returns nil, which the orchestrator treats as "skip the tab stage",
// matching the behavior for profiles that have never saved a session.
func LoadSession(p *profile.Profile) (*session.Snapshot, error) {
	path := p.SessionPath()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	snap.Raw = data
	snap.LastModified = info.ModTime()
	return &snap, nil
}

// WriteSession wholesale-replaces the profile's snapshot with the
// winner's bytes. The winner's modification time is carried over so
// the pair compares as converged on the next run instead of ping-
// ponging on write times.
func WriteSession(p *profile.Profile, snap *session.Snapshot) error {
	path := p.SessionPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, snap.Raw, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chtimes(path, snap.LastModified, snap.LastModified); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
