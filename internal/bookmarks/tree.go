// Package bookmarks implements the bookmark tree model and the
// three-way merge engine.
//
// Browser-assigned node ids are not shared across browsers, so identity
// is content-based: a bookmark is identified by its URL, a folder by
// its title within the parent folder path. The merge uses the last
// converged tree (the merge state) as a common ancestor, which is what
// lets it tell "added on A" apart from "deleted on B".
package bookmarks

import (
	"fmt"
	"strings"
)

// Kind tags a node as a folder or a bookmark.
type Kind string

const (
	KindURL    Kind = "url"
	KindFolder Kind = "folder"
)

// Root names, in write-back order.
var RootNames = []string{"bookmark_bar", "other"}

// Node is one bookmark or folder. Folders own children by position
// only; there are no parent pointers.
type Node struct {
	Kind         Kind    `json:"kind"`
	Title        string  `json:"title"`
	URL          string  `json:"url,omitempty"`
	DateAdded    int64   `json:"date_added"`
	DateModified int64   `json:"date_modified,omitempty"`
	GUID         string  `json:"guid,omitempty"`
	Children     []*Node `json:"children,omitempty"`
}

// Key returns the node's content-based identity within its sibling set:
// URL for bookmarks, title for folders.
func (n *Node) Key() string {
	if n.Kind == KindURL {
		return n.URL
	}
	return n.Title
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	out := *n
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

// Validate checks tree invariants: acyclicity is structural (children
// are owned slices), so the checks are kind consistency and sibling
// uniqueness.
func (n *Node) Validate() error {
	return n.validate("")
}

func (n *Node) validate(path string) error {
	switch n.Kind {
	case KindURL:
		if n.URL == "" {
			return fmt.Errorf("bookmark %q at %s has no url", n.Title, pathOrRoot(path))
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("bookmark %q at %s has children", n.Title, pathOrRoot(path))
		}
		return nil
	case KindFolder:
		seen := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			key := string(c.Kind) + ":" + c.Key()
			if seen[key] {
				return fmt.Errorf("duplicate sibling %q under %s", c.Key(), pathOrRoot(path))
			}
			seen[key] = true
			if err := c.validate(childPath(path, n.Title)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("node %q has unknown kind %q", n.Title, n.Kind)
}

// Equal reports deep structural equality, ignoring browser-assigned
// identifiers (GUID) that differ legitimately across profiles.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || n.Title != o.Title || n.URL != o.URL {
		return false
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Tree holds the named roots of one profile's bookmarks.
type Tree struct {
	Roots map[string]*Node `json:"roots"`
}

// NewTree returns a tree with empty folders for every known root.
func NewTree() *Tree {
	t := &Tree{Roots: make(map[string]*Node, len(RootNames))}
	for _, name := range RootNames {
		t.Roots[name] = &Node{Kind: KindFolder, Title: name}
	}
	return t
}

// Root returns the named root, creating an empty folder if absent.
func (t *Tree) Root(name string) *Node {
	if t.Roots == nil {
		t.Roots = make(map[string]*Node)
	}
	if t.Roots[name] == nil {
		t.Roots[name] = &Node{Kind: KindFolder, Title: name}
	}
	return t.Roots[name]
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	out := &Tree{Roots: make(map[string]*Node, len(t.Roots))}
	for name, root := range t.Roots {
		out.Roots[name] = root.Clone()
	}
	return out
}

// Equal reports whether two trees hold the same content.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	for _, name := range RootNames {
		if !t.Root(name).Equal(o.Root(name)) {
			return false
		}
	}
	return true
}

// Validate checks invariants on every root.
func (t *Tree) Validate() error {
	for _, name := range RootNames {
		if root, ok := t.Roots[name]; ok {
			if err := root.Validate(); err != nil {
				return fmt.Errorf("root %s: %w", name, err)
			}
		}
	}
	return nil
}

// Count returns the number of bookmark (url) nodes in the tree.
func (t *Tree) Count() int {
	var n int
	for _, root := range t.Roots {
		n += countURLs(root)
	}
	return n
}

func countURLs(n *Node) int {
	if n.Kind == KindURL {
		return 1
	}
	var total int
	for _, c := range n.Children {
		total += countURLs(c)
	}
	return total
}

func childPath(parent, title string) string {
	if parent == "" {
		return title
	}
	return parent + "/" + title
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, "/")
}
