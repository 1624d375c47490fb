package bookmarks

import "fmt"

// ConflictError reports an identity collision the tie-break rules
// cannot resolve: two differently-typed nodes claiming the same
// identity within one sibling set.
type ConflictError struct {
	Path  string
	Key   string
	KindA Kind
	KindB Kind
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unresolvable bookmark conflict at %s: %q is a %s on one side and a %s on the other",
		pathOrRoot(e.Path), e.Key, e.KindA, e.KindB)
}

// Stats summarizes one bookmark merge for the run log.
type Stats struct {
	// AddedFromA counts nodes only A had that the merge carries over.
	AddedFromA int
	// AddedFromB counts nodes only B had that the merge carries over.
	AddedFromB int
	// Deleted counts propagated deletions (present in the ancestor,
	// removed on one side, dropped from the other).
	Deleted int
	// Kept counts nodes present on both sides.
	Kept int
}

// Merge computes the converged tree from trees a and b using ancestor
// as the common baseline. ancestor may be nil (first run), in which
// case the merge degrades to a plain union: nothing can be recognized
// as a deletion.
//
// Per-node rules, at every sibling set:
//   - on both sides: keep; differing attributes resolved toward the
//     side with the later date_added
//   - on one side only, not in the ancestor: an addition, carried over
//   - on one side only, present in the ancestor: a deletion on the
//     other side, propagated — unless the surviving copy changed since
//     the ancestor, in which case the change wins over the deletion
//
// The result is a single tree meant to be applied to both profiles and
// persisted as the next ancestor. Merging the result against itself
// yields the result again (idempotence).
func Merge(a, b, ancestor *Tree) (*Tree, Stats, error) {
	var stats Stats
	if ancestor == nil {
		ancestor = NewTree()
	}
	out := &Tree{Roots: make(map[string]*Node, len(RootNames))}
	for _, name := range RootNames {
		merged, err := mergeFolder(a.Root(name), b.Root(name), ancestor.Root(name), name, &stats)
		if err != nil {
			return nil, stats, err
		}
		out.Roots[name] = merged
	}
	if err := out.Validate(); err != nil {
		return nil, stats, fmt.Errorf("merge produced invalid tree: %w", err)
	}
	return out, stats, nil
}

// mergeFolder merges one sibling set. Ordering: a's order first, then
// b-only nodes in b's order.
func mergeFolder(fa, fb, fs *Node, path string, stats *Stats) (*Node, error) {
	if _, err := indexChildren(fa, path); err != nil {
		return nil, err
	}
	idxB, err := indexChildren(fb, path)
	if err != nil {
		return nil, err
	}
	idxS, err := indexChildren(fs, path)
	if err != nil {
		return nil, err
	}

	out := &Node{
		Kind:         KindFolder,
		Title:        fa.Title,
		DateAdded:    earlierNonZero(fa.DateAdded, fb.DateAdded),
		DateModified: later(fa.DateModified, fb.DateModified),
		GUID:         firstGUID(fa, fb),
	}

	done := make(map[string]bool, len(fa.Children))
	for _, na := range fa.Children {
		key := na.Key()
		if done[key] {
			continue
		}
		done[key] = true
		merged, err := mergeNode(na, idxB[key], idxS[key], path, stats)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			out.Children = append(out.Children, merged)
		}
	}
	for _, nb := range fb.Children {
		key := nb.Key()
		if done[key] {
			continue
		}
		done[key] = true
		merged, err := mergeNode(nil, nb, idxS[key], path, stats)
		if err != nil {
			return nil, err
		}
		if merged != nil {
			out.Children = append(out.Children, merged)
		}
	}
	return out, nil
}

// mergeNode resolves one identity. Exactly one of na, nb may be nil.
func mergeNode(na, nb, ns *Node, parentPath string, stats *Stats) (*Node, error) {
	switch {
	case na != nil && nb != nil:
		if na.Kind != nb.Kind {
			return nil, &ConflictError{Path: parentPath, Key: na.Key(), KindA: na.Kind, KindB: nb.Kind}
		}
		if ns != nil && ns.Kind != na.Kind {
			return nil, &ConflictError{Path: parentPath, Key: na.Key(), KindA: ns.Kind, KindB: na.Kind}
		}
		stats.Kept++
		if na.Kind == KindURL {
			return mergeBookmark(na, nb), nil
		}
		return mergeFolder(na, nb, folderOrEmpty(ns, na.Title), childPath(parentPath, na.Title), stats)

	case na != nil:
		return mergeOneSided(na, ns, parentPath, stats, &stats.AddedFromA)

	case nb != nil:
		return mergeOneSided(nb, ns, parentPath, stats, &stats.AddedFromB)
	}
	return nil, nil
}

// mergeOneSided handles a node present on a single side: an addition if
// the ancestor never had it, otherwise a deletion on the other side.
// A deletion is propagated unless the surviving copy diverged from the
// ancestor, which is taken as an intentional keep.
func mergeOneSided(n, ns *Node, parentPath string, stats *Stats, added *int) (*Node, error) {
	if ns == nil {
		countAdditions(n, added)
		return n.Clone(), nil
	}
	if ns.Kind != n.Kind {
		return nil, &ConflictError{Path: parentPath, Key: n.Key(), KindA: ns.Kind, KindB: n.Kind}
	}
	if n.Equal(ns) {
		stats.Deleted++
		return nil, nil
	}
	// Changed since the ancestor: the modification wins over the
	// propagated deletion, last write wins at node granularity.
	return n.Clone(), nil
}

// mergeBookmark resolves attribute differences for the same URL: the
// copy with the later date_added wins the tie-break.
func mergeBookmark(na, nb *Node) *Node {
	winner, loser := na, nb
	if nb.DateAdded > na.DateAdded {
		winner, loser = nb, na
	}
	out := winner.Clone()
	// Keep the earliest known add time regardless of which copy won.
	out.DateAdded = earlierNonZero(na.DateAdded, nb.DateAdded)
	if out.Title == "" {
		out.Title = loser.Title
	}
	if out.GUID == "" {
		out.GUID = loser.GUID
	}
	return out
}

func indexChildren(folder *Node, path string) (map[string]*Node, error) {
	idx := make(map[string]*Node, len(folder.Children))
	for _, c := range folder.Children {
		if prev, ok := idx[c.Key()]; ok {
			if prev.Kind != c.Kind {
				return nil, &ConflictError{Path: path, Key: c.Key(), KindA: prev.Kind, KindB: c.Kind}
			}
			continue
		}
		idx[c.Key()] = c
	}
	return idx, nil
}

func countAdditions(n *Node, added *int) {
	*added++
	for _, c := range n.Children {
		countAdditions(c, added)
	}
}

func folderOrEmpty(n *Node, title string) *Node {
	if n != nil {
		return n
	}
	return &Node{Kind: KindFolder, Title: title}
}

func firstGUID(a, b *Node) string {
	if a.GUID != "" {
		return a.GUID
	}
	return b.GUID
}

func earlierNonZero(a, b int64) int64 {
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

func later(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
