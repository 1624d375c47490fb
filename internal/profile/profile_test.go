package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		profileName string
		root        string
		wantErr     bool
	}{
		{"valid", "work", dir, false},
		{"empty name", "", dir, true},
		{"missing root", "work", filepath.Join(dir, "nope"), true},
		{"root is a file", "work", mkFile(t, dir), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.profileName, tt.root)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func mkFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "plainfile")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStorePath(t *testing.T) {
	p, err := New("work", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for store, want := range map[string]string{
		StoreHistory:   p.HistoryPath(),
		StoreBookmarks: p.BookmarksPath(),
		StoreSession:   p.SessionPath(),
	} {
		got, err := p.StorePath(store)
		if err != nil {
			t.Errorf("StorePath(%q) error = %v", store, err)
		}
		if got != want {
			t.Errorf("StorePath(%q) = %q, want %q", store, got, want)
		}
	}

	if _, err := p.StorePath("cookies"); err == nil {
		t.Error("StorePath() accepted an unknown store")
	}
}

func TestLastModified(t *testing.T) {
	p, err := New("work", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !p.LastModified().IsZero() {
		t.Error("LastModified() != zero for empty profile")
	}

	older := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	writeAt(t, p.HistoryPath(), older)
	writeAt(t, p.BookmarksPath(), newer)

	if got := p.LastModified(); !got.Equal(newer) {
		t.Errorf("LastModified() = %v, want %v", got, newer)
	}
}

func writeAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}
