// Package runlock provides the run-level exclusive lock that prevents
// two overlapping engine invocations from touching the same stores.
//
// The lock is an flock on a file in the state directory: it is held
// from the start of Guarding until the run reaches Done or Failed, and
// it vanishes with the process, so a crashed run never wedges the
// scheduler.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrHeld means another run holds the lock. Callers treat this as a
// benign skip, not a failure.
var ErrHeld = errors.New("run lock held by another process")

// Lock is a held run lock.
type Lock struct {
	f    *os.File
	path string
}

// Acquire takes the lock without blocking. ErrHeld is returned when a
// concurrent run already holds it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run lock: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	// Best effort; the flock is what matters.
	f.Truncate(0)
	f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	return &Lock{f: f, path: path}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

// Path returns the lock file's location.
func (l *Lock) Path() string { return l.path }
