// Package session implements open-tab session election.
//
// Sessions have no stable cross-browser identity, so there is no field
// merge: the more recently modified snapshot replaces the other
// wholesale. Equal timestamps mean the pair is already converged.
package session

import "time"

// Tab is one open tab in a window.
type Tab struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Window is an ordered sequence of tabs.
type Window struct {
	Tabs []Tab `json:"tabs"`
}

// Snapshot is one profile's open-tab state. Raw holds the exact store
// bytes; replacement copies Raw, never a re-encoding, so the snapshot
// stays a wholly-opaque unit.
type Snapshot struct {
	Windows      []Window  `json:"windows"`
	LastModified time.Time `json:"-"`
	Raw          []byte    `json:"-"`
}

// TabCount returns the number of tabs across all windows.
func (s *Snapshot) TabCount() int {
	var n int
	for _, w := range s.Windows {
		n += len(w.Tabs)
	}
	return n
}

// Outcome is the result of an election.
type Outcome int

const (
	// NoChange means equal timestamps; the pair is treated as
	// converged and nothing is written.
	NoChange Outcome = iota
	// AWins means A's snapshot replaces B's.
	AWins
	// BWins means B's snapshot replaces A's.
	BWins
	// Skipped means at least one side has no session store; nothing
	// is written and the run continues.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "no-change"
	case AWins:
		return "a-wins"
	case BWins:
		return "b-wins"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Elect picks the winner by last-modified time. Strictly greater wins;
// a tie is a converged no-op. Either snapshot may be nil (store
// missing), which skips the stage without error. A snapshot older than
// the last successful sync can still win: a browser closed for a long
// time is a legitimate winner if the other side never changed.
func Elect(a, b *Snapshot) Outcome {
	if a == nil || b == nil {
		return Skipped
	}
	switch {
	case a.LastModified.After(b.LastModified):
		return AWins
	case b.LastModified.After(a.LastModified):
		return BWins
	}
	return NoChange
}
