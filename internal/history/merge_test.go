package history

import "testing"

func entry(url string, count, first, last int64) *Entry {
	return &Entry{
		URL:        NormalizeURL(url),
		RawURL:     url,
		VisitCount: count,
		FirstVisit: first,
		LastVisit:  last,
	}
}

func find(t *testing.T, entries []*Entry, url string) *Entry {
	t.Helper()
	key := NormalizeURL(url)
	for _, e := range entries {
		if e.URL == key {
			return e
		}
	}
	t.Fatalf("entry %s not found", url)
	return nil
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "https://example.com/path", "https://example.com/path"},
		{"host case folded", "https://Example.COM/path", "https://example.com/path"},
		{"scheme case folded", "HTTPS://example.com/", "https://example.com/"},
		{"trailing slash equivalence", "https://example.com/path/", "https://example.com/path"},
		{"bare host gains slash", "https://example.com", "https://example.com/"},
		{"root slash kept", "https://example.com/", "https://example.com/"},
		{"default http port dropped", "http://example.com:80/x", "http://example.com/x"},
		{"default https port dropped", "https://example.com:443/x", "https://example.com/x"},
		{"explicit port kept", "https://example.com:8443/x", "https://example.com:8443/x"},
		{"fragment dropped", "https://example.com/x#frag", "https://example.com/x"},
		{"query kept", "https://example.com/x?q=1", "https://example.com/x?q=1"},
		{"path case preserved", "https://example.com/Path", "https://example.com/Path"},
		{"unparseable returned as-is", "not a url", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Mirrors the reference scenario: overlapping x.com plus y.com on one
// side only.
func TestMerge_UnionWithReconciliation(t *testing.T) {
	a := []*Entry{entry("https://x.com", 2, 100, 200)}
	b := []*Entry{
		entry("https://x.com", 5, 50, 150),
		entry("https://y.com", 1, 10, 10),
	}

	merged, stats := Merge(a, b)

	if stats.Total != 2 || stats.Reconciled != 1 || stats.OnlyA != 0 || stats.OnlyB != 1 {
		t.Fatalf("stats = %+v, want total=2 reconciled=1 only_a=0 only_b=1", stats)
	}

	x := find(t, merged, "https://x.com")
	if x.VisitCount != 5 {
		t.Errorf("x.com count = %d, want 5 (max, not sum)", x.VisitCount)
	}
	if x.FirstVisit != 50 || x.LastVisit != 200 {
		t.Errorf("x.com range = [%d, %d], want [50, 200]", x.FirstVisit, x.LastVisit)
	}

	y := find(t, merged, "https://y.com")
	if y.VisitCount != 1 || y.FirstVisit != 10 || y.LastVisit != 10 {
		t.Errorf("y.com = %+v, want copied as-is", y)
	}
}

func TestMerge_CountIsMaxNotSum(t *testing.T) {
	// Second sync of an already replicated pair: both sides carry the
	// same 7 visits. Summing would report 14.
	a := []*Entry{entry("https://x.com", 7, 10, 70)}
	b := []*Entry{entry("https://x.com", 7, 10, 70)}

	merged, _ := Merge(a, b)
	if got := find(t, merged, "https://x.com").VisitCount; got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

func TestMerge_TitleFollowsMoreRecentVisit(t *testing.T) {
	tests := []struct {
		name           string
		titleA, titleB string
		lastA, lastB   int64
		want           string
	}{
		{"b more recent", "Old", "New", 100, 200, "New"},
		{"a more recent", "New", "Old", 200, 100, "New"},
		{"tie prefers non-empty", "", "Something", 100, 100, "Something"},
		{"tie keeps a when both set", "FromA", "FromB", 100, 100, "FromA"},
		{"recent side empty falls back", "Kept", "", 100, 200, "Kept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := entry("https://x.com", 1, 1, tt.lastA)
			a.Title = tt.titleA
			b := entry("https://x.com", 1, 1, tt.lastB)
			b.Title = tt.titleB

			merged, _ := Merge([]*Entry{a}, []*Entry{b})
			if got := merged[0].Title; got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMerge_VisitsDeduplicated(t *testing.T) {
	a := entry("https://x.com", 3, 10, 30)
	a.Visits = []Visit{{Time: 10}, {Time: 20}, {Time: 30}}
	b := entry("https://x.com", 3, 10, 40)
	b.Visits = []Visit{{Time: 20}, {Time: 30}, {Time: 40}}

	merged, _ := Merge([]*Entry{a}, []*Entry{b})
	e := merged[0]
	if len(e.Visits) != 4 {
		t.Fatalf("visits = %d, want 4 distinct", len(e.Visits))
	}
	for i := 1; i < len(e.Visits); i++ {
		if e.Visits[i].Time <= e.Visits[i-1].Time {
			t.Errorf("visits not ordered: %v", e.Visits)
		}
	}
	// Count floors at the number of distinct recorded visits.
	if e.VisitCount != 4 {
		t.Errorf("count = %d, want 4", e.VisitCount)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	a := []*Entry{
		entry("https://x.com", 2, 100, 200),
		entry("https://a.com", 9, 5, 500),
	}
	b := []*Entry{entry("https://x.com", 5, 50, 150)}

	first, _ := Merge(a, b)
	second, _ := Merge(first, first)
	if !Equal(first, second) {
		t.Error("merging a converged set against itself changed it")
	}
}

func TestMerge_NormalizationCollapsesVariants(t *testing.T) {
	a := []*Entry{entry("https://X.com/page/", 1, 10, 10)}
	b := []*Entry{entry("https://x.com/page", 2, 5, 20)}

	merged, stats := Merge(a, b)
	if stats.Total != 1 {
		t.Fatalf("total = %d, want variants collapsed to 1", stats.Total)
	}
	e := merged[0]
	if e.VisitCount != 2 || e.FirstVisit != 5 || e.LastVisit != 20 {
		t.Errorf("merged = %+v", e)
	}
}

func TestCoalesce(t *testing.T) {
	entries := []*Entry{
		entry("https://x.com/a", 1, 10, 10),
		entry("https://X.COM/a/", 3, 5, 20),
		entry("https://y.com", 1, 1, 1),
	}
	out := Coalesce(entries)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	e := find(t, out, "https://x.com/a")
	if e.VisitCount != 3 || e.FirstVisit != 5 || e.LastVisit != 20 {
		t.Errorf("coalesced = %+v", e)
	}
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{URL: "https://x.com/", VisitCount: 1, FirstVisit: 1, LastVisit: 2}, false},
		{"missing url", Entry{VisitCount: 1}, true},
		{"negative count", Entry{URL: "https://x.com/", VisitCount: -1}, true},
		{"inverted range", Entry{URL: "https://x.com/", FirstVisit: 5, LastVisit: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
