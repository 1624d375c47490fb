// Package backup captures restorable copies of profile stores before
// any mutation is committed.
//
// Artifacts live under <dir>/<profile>/<timestamp>/<store> and are
// immutable once taken. The engine only creates and restores them;
// retention and pruning belong to an external collaborator.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// timestampLayout names backup directories; it sorts lexically in
// chronological order and is filename-safe.
const timestampLayout = "20060102T150405.000Z"

// Failure wraps a backup that could not be taken. Any Failure aborts
// the run before a single live byte changes.
type Failure struct {
	Profile string
	Store   string
	Err     error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("backup %s/%s: %v", e.Profile, e.Store, e.Err)
}

func (e *Failure) Unwrap() error { return e.Err }

// Artifact is one immutable store copy.
type Artifact struct {
	Profile string    `json:"profile"`
	Store   string    `json:"store"`
	Source  string    `json:"source"`
	Path    string    `json:"path"`
	TakenAt time.Time `json:"taken_at"`
}

// Manager owns the backup directory.
type Manager struct {
	dir string
	now func() time.Time
}

// NewManager returns a Manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, now: time.Now}
}

// NewManagerWithClock is NewManager with an injected clock, for tests.
func NewManagerWithClock(dir string, now func() time.Time) *Manager {
	return &Manager{dir: dir, now: now}
}

// Backup copies the store at src into a fresh artifact. A store that
// does not exist yet yields (nil, nil): there is nothing to protect.
func (m *Manager) Backup(profileName, store, src string) (*Artifact, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, &Failure{Profile: profileName, Store: store, Err: err}
	}

	taken := m.now().UTC()
	dir := filepath.Join(m.dir, profileName, taken.Format(timestampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Failure{Profile: profileName, Store: store, Err: err}
	}

	dst := filepath.Join(dir, store)
	if err := copyFile(src, dst); err != nil {
		return nil, &Failure{Profile: profileName, Store: store, Err: err}
	}

	return &Artifact{
		Profile: profileName,
		Store:   store,
		Source:  src,
		Path:    dst,
		TakenAt: taken,
	}, nil
}

// Restore writes the artifact's bytes back over its source store. This
// is the external recovery path; the engine never calls it on its own.
func (m *Manager) Restore(a *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(a.Source), 0o755); err != nil {
		return fmt.Errorf("restore %s/%s: %w", a.Profile, a.Store, err)
	}
	if err := copyFile(a.Path, a.Source); err != nil {
		return fmt.Errorf("restore %s/%s: %w", a.Profile, a.Store, err)
	}
	return nil
}

// List returns all artifacts for a profile, oldest first. Source paths
// are not recorded on disk, so restored listings carry an empty Source
// until resolved by the caller.
func (m *Manager) List(profileName string) ([]*Artifact, error) {
	root := filepath.Join(m.dir, profileName)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups for %s: %w", profileName, err)
	}

	var artifacts []*Artifact
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		taken, err := time.Parse(timestampLayout, entry.Name())
		if err != nil {
			continue
		}
		stores, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("list backups for %s: %w", profileName, err)
		}
		for _, s := range stores {
			if s.IsDir() {
				continue
			}
			artifacts = append(artifacts, &Artifact{
				Profile: profileName,
				Store:   s.Name(),
				Path:    filepath.Join(root, entry.Name(), s.Name()),
				TakenAt: taken,
			})
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].TakenAt.Before(artifacts[j].TakenAt)
	})
	return artifacts, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
