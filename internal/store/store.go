// Package store reads and writes the on-disk profile stores.
//
// Reads never touch the live file directly: the store is copied to a
// private scratch location first, so a browser that starts mid-run
// never contends with an open read handle. Writes go the other way:
// the full result is produced as a sibling temp file, fsynced, and
// renamed over the live store, so a crash mid-write never leaves a
// half-written store behind.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadError wraps a malformed or unreadable store.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read store %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a store that could not be written back.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write store %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// copyFile copies src to dst, creating or truncating dst.
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

// writeFileAtomic writes data to path via a sibling temp file and
// rename. The containing directory is synced so the rename is durable.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return syncDir(dir)
}

// replaceFile renames tmp over live and syncs the directory.
func replaceFile(tmp, live string) error {
	if err := os.Rename(tmp, live); err != nil {
		os.Remove(tmp)
		return err
	}
	return syncDir(filepath.Dir(live))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
