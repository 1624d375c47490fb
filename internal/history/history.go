// Package history implements the visit-history merge engine.
//
// The engine computes the union of two histories keyed by normalized
// URL. The merged set is written back to both profiles identically, so
// a successful run leaves both histories converged.
package history

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Visit is one timestamped visit event belonging to an Entry. It is
// carried through the merge so identical events present in both sources
// are not double-counted.
type Visit struct {
	Time       int64
	FromVisit  int64
	Transition int64
	SegmentID  int64
	Duration   int64
}

// Entry is one history row keyed by normalized URL.
//
// Timestamps are the store's native microsecond counts; the engine only
// compares them, it never interprets the epoch.
type Entry struct {
	URL        string // normalized, the merge key
	RawURL     string // as stored, preserved on write-back
	Title      string
	VisitCount int64
	TypedCount int64
	Hidden     bool
	FirstVisit int64
	LastVisit  int64
	Visits     []Visit
}

// Validate checks entry invariants before write-back.
func (e *Entry) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("url is required")
	}
	if e.VisitCount < 0 {
		return fmt.Errorf("visit_count must be non-negative (got %d)", e.VisitCount)
	}
	if e.FirstVisit > e.LastVisit {
		return fmt.Errorf("first_visit %d after last_visit %d", e.FirstVisit, e.LastVisit)
	}
	return nil
}

// NormalizeURL canonicalizes a URL for use as a merge key: scheme and
// host are case-folded, default ports are dropped, the fragment is
// dropped, and a trailing slash is equivalent to none. Unparseable
// input is returned unchanged so it still keys consistently.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
		if u.Path == "" {
			u.Path = "/"
		}
	}
	return u.String()
}

// Equal reports whether two entry sets hold the same merged content.
// Order is ignored; entries are compared by normalized URL.
func Equal(a, b []*Entry) bool {
	if len(a) != len(b) {
		return false
	}
	byURL := make(map[string]*Entry, len(a))
	for _, e := range a {
		byURL[e.URL] = e
	}
	for _, e := range b {
		o, ok := byURL[e.URL]
		if !ok {
			return false
		}
		if o.Title != e.Title ||
			o.VisitCount != e.VisitCount ||
			o.TypedCount != e.TypedCount ||
			o.Hidden != e.Hidden ||
			o.FirstVisit != e.FirstVisit ||
			o.LastVisit != e.LastVisit ||
			len(o.Visits) != len(e.Visits) {
			return false
		}
	}
	return true
}

// sortEntries orders entries by normalized URL for deterministic
// write-back and comparison.
func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].URL < entries[j].URL
	})
}
