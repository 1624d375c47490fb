package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/browserpair/bpsync/internal/bookmarks"
	"github.com/browserpair/bpsync/internal/profile"
)

// chromiumBookmarks is the on-disk bookmarks file. Roots the engine
// does not manage (e.g. "synced") are carried through untouched.
type chromiumBookmarks struct {
	Checksum string                     `json:"checksum,omitempty"`
	Roots    map[string]json.RawMessage `json:"roots"`
	Version  int                        `json:"version"`
}

// chromiumNode is one node of the on-disk tree. Timestamps are decimal
// strings of microsecond counts, per the store format.
type chromiumNode struct {
	Children     []*chromiumNode `json:"children,omitempty"`
	DateAdded    string          `json:"date_added,omitempty"`
	DateModified string          `json:"date_modified,omitempty"`
	GUID         string          `json:"guid,omitempty"`
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	URL          string          `json:"url,omitempty"`
}

// LoadBookmarks reads a profile's bookmark tree. A missing file loads
// as an empty tree so a fresh profile can be seeded from the other
// side. Malformed JSON is a ReadError.
func LoadBookmarks(p *profile.Profile) (*bookmarks.Tree, error) {
	path := p.BookmarksPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return bookmarks.NewTree(), nil
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	var file chromiumBookmarks
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	tree := bookmarks.NewTree()
	for _, name := range bookmarks.RootNames {
		raw, ok := file.Roots[name]
		if !ok {
			continue
		}
		var cn chromiumNode
		if err := json.Unmarshal(raw, &cn); err != nil {
			return nil, &ReadError{Path: path, Err: fmt.Errorf("root %s: %w", name, err)}
		}
		root, err := decodeNode(&cn)
		if err != nil {
			return nil, &ReadError{Path: path, Err: fmt.Errorf("root %s: %w", name, err)}
		}
		root.Title = name
		tree.Roots[name] = root
	}
	if err := tree.Validate(); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return tree, nil
}

// WriteBookmarks atomically replaces the profile's bookmark file with
// the merged tree. Node ids are renumbered; GUIDs are preserved where
// known and generated for inserted nodes. Unmanaged roots from the
// existing file are carried through unchanged.
func WriteBookmarks(p *profile.Profile, tree *bookmarks.Tree) error {
	path := p.BookmarksPath()

	file := chromiumBookmarks{
		Roots:   make(map[string]json.RawMessage),
		Version: 1,
	}
	if data, err := os.ReadFile(path); err == nil {
		var existing chromiumBookmarks
		if err := json.Unmarshal(data, &existing); err == nil {
			for name, raw := range existing.Roots {
				file.Roots[name] = raw
			}
		}
	} else if !os.IsNotExist(err) {
		return &WriteError{Path: path, Err: err}
	}

	nextID := int64(1)
	for _, name := range bookmarks.RootNames {
		cn := encodeNode(tree.Root(name), &nextID)
		raw, err := json.Marshal(cn)
		if err != nil {
			return &WriteError{Path: path, Err: err}
		}
		file.Roots[name] = raw
	}
	// The browser recomputes its own checksum; writing a stale one
	// would mark the file corrupt.
	file.Checksum = ""

	data, err := json.MarshalIndent(&file, "", "   ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func decodeNode(cn *chromiumNode) (*bookmarks.Node, error) {
	n := &bookmarks.Node{
		Title:        cn.Name,
		URL:          cn.URL,
		GUID:         cn.GUID,
		DateAdded:    parseMicros(cn.DateAdded),
		DateModified: parseMicros(cn.DateModified),
	}
	switch cn.Type {
	case "url":
		n.Kind = bookmarks.KindURL
		if n.URL == "" {
			return nil, fmt.Errorf("url node %q has no url", cn.Name)
		}
	case "folder":
		n.Kind = bookmarks.KindFolder
		for _, child := range cn.Children {
			decoded, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, decoded)
		}
	default:
		return nil, fmt.Errorf("node %q has unknown type %q", cn.Name, cn.Type)
	}
	return n, nil
}

func encodeNode(n *bookmarks.Node, nextID *int64) *chromiumNode {
	cn := &chromiumNode{
		Name:      n.Title,
		GUID:      n.GUID,
		ID:        strconv.FormatInt(*nextID, 10),
		DateAdded: formatMicros(n.DateAdded),
	}
	*nextID++
	if cn.GUID == "" {
		cn.GUID = uuid.NewString()
	}
	switch n.Kind {
	case bookmarks.KindURL:
		cn.Type = "url"
		cn.URL = n.URL
	case bookmarks.KindFolder:
		cn.Type = "folder"
		cn.DateModified = formatMicros(n.DateModified)
		cn.Children = make([]*chromiumNode, 0, len(n.Children))
		for _, child := range n.Children {
			cn.Children = append(cn.Children, encodeNode(child, nextID))
		}
	}
	return cn
}

func parseMicros(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatMicros(v int64) string {
	return strconv.FormatInt(v, 10)
}
