package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/browserpair/bpsync/internal/profile"
)

func newProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.New("test", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCanOperate_Clear(t *testing.T) {
	p := newProfile(t)
	verdict, err := CanOperate(p)
	if err != nil {
		t.Fatalf("CanOperate() error = %v", err)
	}
	if !verdict.Clear {
		t.Errorf("verdict blocked: %s", verdict.Reason)
	}
}

func TestCanOperate_Blocked(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, p *profile.Profile)
	}{
		{
			"singleton lock file",
			func(t *testing.T, p *profile.Profile) {
				if err := os.WriteFile(p.SingletonLockPath(), nil, 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"singleton lock dangling symlink",
			func(t *testing.T, p *profile.Profile) {
				if err := os.Symlink("host-1234", p.SingletonLockPath()); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"windows-style lockfile",
			func(t *testing.T, p *profile.Profile) {
				if err := os.WriteFile(filepath.Join(p.Root, "lockfile"), nil, 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"hot history journal",
			func(t *testing.T, p *profile.Profile) {
				if err := os.WriteFile(p.HistoryPath()+"-journal", []byte("journal"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			"incomplete run marker",
			func(t *testing.T, p *profile.Profile) {
				if err := os.WriteFile(p.MarkerPath(), []byte("committing\n"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile(t)
			tt.setup(t, p)
			verdict, err := CanOperate(p)
			if err != nil {
				t.Fatalf("CanOperate() error = %v", err)
			}
			if verdict.Clear {
				t.Error("verdict clear, want blocked")
			}
			if verdict.Reason == "" {
				t.Error("blocked verdict carries no reason")
			}
		})
	}
}

func TestCanOperate_EmptyJournalIsClear(t *testing.T) {
	// SQLite leaves zero-length journals behind on clean close.
	p := newProfile(t)
	if err := os.WriteFile(p.HistoryPath()+"-journal", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	verdict, err := CanOperate(p)
	if err != nil {
		t.Fatalf("CanOperate() error = %v", err)
	}
	if !verdict.Clear {
		t.Errorf("verdict blocked for empty journal: %s", verdict.Reason)
	}
}

func TestCanOperate_IsReadOnly(t *testing.T) {
	p := newProfile(t)
	if _, err := CanOperate(p); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe created %d entries in the profile root", len(entries))
	}
}
