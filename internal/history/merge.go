package history

import "sort"

// Stats summarizes one history merge for the run log.
type Stats struct {
	// Total is the size of the merged set.
	Total int
	// OnlyA and OnlyB count URLs present on one side only.
	OnlyA int
	OnlyB int
	// Reconciled counts URLs present on both sides.
	Reconciled int
}

// Merge computes the union of two histories.
//
// For a URL present on both sides the merged entry takes:
//   - title from the side with the more recent last visit (ties prefer
//     the non-empty title)
//   - first_visit = min, last_visit = max
//   - visit_count = max of the two counts, never the sum: after the
//     first sync both sides already carry each other's visits, so
//     summing would double-count
//   - typed_count = max, hidden = logical OR
//   - visit records deduplicated by visit time
//
// Inputs are not mutated. The result is sorted by normalized URL.
func Merge(a, b []*Entry) ([]*Entry, Stats) {
	var stats Stats

	byURL := make(map[string]*Entry, len(a)+len(b))
	for _, e := range a {
		key := keyOf(e)
		c := cloneEntry(e)
		c.URL = key
		byURL[key] = c
	}
	for _, e := range b {
		key := keyOf(e)
		existing, ok := byURL[key]
		if !ok {
			c := cloneEntry(e)
			c.URL = key
			byURL[key] = c
			stats.OnlyB++
			continue
		}
		byURL[key] = reconcile(existing, e)
		stats.Reconciled++
	}
	stats.OnlyA = len(a) - stats.Reconciled

	merged := make([]*Entry, 0, len(byURL))
	for _, e := range byURL {
		merged = append(merged, e)
	}
	sortEntries(merged)
	stats.Total = len(merged)
	return merged, stats
}

// Coalesce merges entries within a single source that normalize to the
// same URL. Near-duplicates ("http://X.com" vs "http://x.com/") would
// otherwise proliferate across runs.
func Coalesce(entries []*Entry) []*Entry {
	byURL := make(map[string]*Entry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		key := keyOf(e)
		existing, ok := byURL[key]
		if !ok {
			c := cloneEntry(e)
			c.URL = key
			byURL[key] = c
			order = append(order, key)
			continue
		}
		byURL[key] = reconcile(existing, e)
	}
	out := make([]*Entry, 0, len(order))
	for _, key := range order {
		out = append(out, byURL[key])
	}
	return out
}

// reconcile combines two entries for the same normalized URL.
func reconcile(a, b *Entry) *Entry {
	out := &Entry{
		URL:    keyOf(a),
		RawURL: firstNonEmpty(a.RawURL, b.RawURL),
	}

	// Title follows the more recently visited side; on a tie the
	// non-empty title wins.
	switch {
	case b.LastVisit > a.LastVisit:
		out.Title = b.Title
	case a.LastVisit > b.LastVisit:
		out.Title = a.Title
	default:
		out.Title = a.Title
		if out.Title == "" {
			out.Title = b.Title
		}
	}
	if out.Title == "" {
		out.Title = firstNonEmpty(a.Title, b.Title)
	}

	out.FirstVisit = minNonZero(a.FirstVisit, b.FirstVisit)
	out.LastVisit = max64(a.LastVisit, b.LastVisit)
	out.TypedCount = max64(a.TypedCount, b.TypedCount)
	out.Hidden = a.Hidden || b.Hidden
	out.Visits = mergeVisits(a.Visits, b.Visits)

	// Max, not sum: replicated visits must not count twice. The count
	// still floors at the number of distinct recorded visits.
	out.VisitCount = max64(a.VisitCount, b.VisitCount)
	if n := int64(len(out.Visits)); out.VisitCount < n {
		out.VisitCount = n
	}
	return out
}

// mergeVisits unions two visit lists, deduplicating identical events by
// visit time. The result is ordered by time.
func mergeVisits(a, b []Visit) []Visit {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]Visit, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v.Time] {
			seen[v.Time] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v.Time] {
			seen[v.Time] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func keyOf(e *Entry) string {
	if e.URL != "" {
		return e.URL
	}
	return NormalizeURL(e.RawURL)
}

func cloneEntry(e *Entry) *Entry {
	out := *e
	out.Visits = append([]Visit(nil), e.Visits...)
	return &out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// minNonZero treats zero as "absent" so a side with no recorded first
// visit does not drag the merged first visit to zero.
func minNonZero(a, b int64) int64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
