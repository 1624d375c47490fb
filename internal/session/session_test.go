package session

import (
	"testing"
	"time"
)

func snap(mod time.Time, tabs ...string) *Snapshot {
	w := Window{}
	for _, u := range tabs {
		w.Tabs = append(w.Tabs, Tab{URL: u})
	}
	return &Snapshot{Windows: []Window{w}, LastModified: mod}
}

func TestElect(t *testing.T) {
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b *Snapshot
		want Outcome
	}{
		{"a strictly newer", snap(base.Add(time.Minute)), snap(base), AWins},
		{"b strictly newer", snap(base), snap(base.Add(time.Second)), BWins},
		{"equal timestamps converged", snap(base), snap(base), NoChange},
		{"a missing", nil, snap(base), Skipped},
		{"b missing", snap(base), nil, Skipped},
		{"both missing", nil, nil, Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elect(tt.a, tt.b); got != tt.want {
				t.Errorf("Elect() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A winner older than the last sync is still legitimate: a browser can
// sit closed for weeks while the other side never changes.
func TestElect_OldWinnerStillWins(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := old.Add(-24 * time.Hour)
	if got := Elect(snap(old), snap(older)); got != AWins {
		t.Errorf("Elect() = %v, want AWins", got)
	}
}

func TestSnapshot_TabCount(t *testing.T) {
	s := &Snapshot{Windows: []Window{
		{Tabs: []Tab{{URL: "https://a.com"}, {URL: "https://b.com"}}},
		{Tabs: []Tab{{URL: "https://c.com"}}},
	}}
	if got := s.TabCount(); got != 3 {
		t.Errorf("TabCount() = %d, want 3", got)
	}
}
