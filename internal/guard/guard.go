// Package guard decides whether a profile is safe to operate on.
//
// The probe is read-only. A profile is blocked when a running browser
// holds its singleton lock, when the history database has a hot
// journal (a writer died or is still active), or when a previous run
// left its incomplete-run marker behind.
package guard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/browserpair/bpsync/internal/profile"
)

// Verdict is the result of a probe.
type Verdict struct {
	Clear  bool
	Reason string
}

// Blocked returns a blocked verdict with the given reason.
func Blocked(format string, args ...any) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// clear is the single allowed verdict for an operable profile.
var clear = Verdict{Clear: true}

// singletonNames are the lock entries Chromium-family browsers create
// in the profile root while running.
var singletonNames = []string{"SingletonLock", "SingletonSocket", "SingletonCookie", "lockfile"}

// CanOperate probes the profile. The error return is reserved for
// probe failures (e.g. an unreadable profile root); an in-use profile
// is a Blocked verdict, not an error.
func CanOperate(p *profile.Profile) (Verdict, error) {
	if _, err := os.Stat(p.Root); err != nil {
		return Verdict{}, fmt.Errorf("probe profile %s: %w", p.Name, err)
	}

	for _, name := range singletonNames {
		// Lstat: on Linux the singleton entries are dangling symlinks.
		if _, err := os.Lstat(filepath.Join(p.Root, name)); err == nil {
			return Blocked("profile %s: browser lock %s present", p.Name, name), nil
		} else if !os.IsNotExist(err) {
			return Verdict{}, fmt.Errorf("probe lock %s: %w", name, err)
		}
	}

	// A hot rollback journal means the history database has an open or
	// aborted writer.
	journal := p.HistoryPath() + "-journal"
	if info, err := os.Stat(journal); err == nil && info.Size() > 0 {
		return Blocked("profile %s: history database has a hot journal", p.Name), nil
	}

	if _, err := os.Stat(p.MarkerPath()); err == nil {
		return Blocked("profile %s: previous run did not complete (marker %s)", p.Name, profile.MarkerName), nil
	} else if !os.IsNotExist(err) {
		return Verdict{}, fmt.Errorf("probe marker: %w", err)
	}

	return clear, nil
}
