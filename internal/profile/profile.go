// Package profile models one browser profile directory for the duration
// of a sync run.
//
// A Profile is a handle on a profile root plus the well-known paths of
// the stores the engine synchronizes:
//   - History: SQLite database at <root>/History
//   - Bookmarks: JSON file at <root>/Bookmarks
//   - Session: JSON file at <root>/Sessions/session.json
//
// Profiles are not persisted; they exist for one run.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store names used for backups and log records.
const (
	StoreHistory   = "history"
	StoreBookmarks = "bookmarks"
	StoreSession   = "session"
)

// MarkerName is the incomplete-run marker the orchestrator drops in the
// profile root while committing. A leftover marker blocks the next run.
const MarkerName = ".bpsync-incomplete"

// Profile identifies one browser's on-disk state.
type Profile struct {
	// Name is a short label used in logs and backup paths ("work", "home").
	Name string

	// Root is the profile directory containing the stores.
	Root string
}

// New validates root and returns a Profile handle.
func New(name, root string) (*Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("profile %s: %s is not a directory", name, root)
	}
	return &Profile{Name: name, Root: root}, nil
}

// HistoryPath returns the path of the history database.
func (p *Profile) HistoryPath() string {
	return filepath.Join(p.Root, "History")
}

// BookmarksPath returns the path of the bookmarks file.
func (p *Profile) BookmarksPath() string {
	return filepath.Join(p.Root, "Bookmarks")
}

// SessionPath returns the path of the open-tab session snapshot.
func (p *Profile) SessionPath() string {
	return filepath.Join(p.Root, "Sessions", "session.json")
}

// SingletonLockPath returns the lock entry a running browser holds on
// the profile. On Linux builds of Chromium-family browsers this is a
// symlink; on other platforms it may be a regular file.
func (p *Profile) SingletonLockPath() string {
	return filepath.Join(p.Root, "SingletonLock")
}

// MarkerPath returns the incomplete-run marker path.
func (p *Profile) MarkerPath() string {
	return filepath.Join(p.Root, MarkerName)
}

// StorePath maps a store name to its on-disk path.
func (p *Profile) StorePath(store string) (string, error) {
	switch store {
	case StoreHistory:
		return p.HistoryPath(), nil
	case StoreBookmarks:
		return p.BookmarksPath(), nil
	case StoreSession:
		return p.SessionPath(), nil
	}
	return "", fmt.Errorf("unknown store %q", store)
}

// LastModified returns the most recent modification time across the
// profile's stores. Missing stores are ignored; the zero time is
// returned when none exist.
func (p *Profile) LastModified() time.Time {
	var latest time.Time
	for _, path := range []string{p.HistoryPath(), p.BookmarksPath(), p.SessionPath()} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}
