package vfs

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Format names the simulated container an archive pretends to be.
type Format string

const (
	FormatZip Format = "zip"
	FormatTar Format = "tar"
)

const (
	zipSentinel = "__ZIP_DATA__"
	tarSentinel = "__TAR_DATA__"
)

func (f Format) sentinel() string {
	if f == FormatTar {
		return tarSentinel
	}
	return zipSentinel
}

// Archive is a simulated zip or tar container: a set of top-level entries,
// each a full subtree snapshot.
type Archive struct {
	format  Format
	entries map[string]*Node
}

// NewArchive builds an archive from the given entries, keyed by entry name.
// A later entry replaces an earlier one with the same name.
func NewArchive(format Format, entries ...*Node) *Archive {
	a := &Archive{format: format, entries: make(map[string]*Node, len(entries))}
	for _, e := range entries {
		a.entries[e.name] = e
	}
	return a
}

func (a *Archive) Format() Format { return a.format }

// Names returns the entry keys in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the entries sorted by name.
func (a *Archive) Entries() []*Node {
	out := make([]*Node, 0, len(a.entries))
	for _, name := range a.Names() {
		out = append(out, a.entries[name])
	}
	return out
}

func (a *Archive) Entry(name string) *Node {
	return a.entries[name]
}

// Encode renders the sentinel-prefixed JSON wire form.
func (a *Archive) Encode() string {
	data, err := json.Marshal(a.entries)
	if err != nil {
		// Nodes only hold strings, maps and times; marshalling cannot fail.
		panic(err)
	}
	return a.format.sentinel() + string(data)
}

// DecodeArchive parses sentinel-prefixed content. ok is false when content is
// not an archive or its payload is malformed.
func DecodeArchive(content string) (*Archive, bool) {
	var format Format
	var payload string
	switch {
	case strings.HasPrefix(content, zipSentinel):
		format, payload = FormatZip, content[len(zipSentinel):]
	case strings.HasPrefix(content, tarSentinel):
		format, payload = FormatTar, content[len(tarSentinel):]
	default:
		return nil, false
	}

	var entries map[string]*Node
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, false
	}
	a := &Archive{format: format, entries: make(map[string]*Node, len(entries))}
	for key, n := range entries {
		if n == nil {
			continue
		}
		a.entries[key] = n.WithName(key)
	}
	return a, true
}

type nodeJSON struct {
	Name        string               `json:"name"`
	Type        string               `json:"type"`
	Content     *string              `json:"content,omitempty"`
	Children    map[string]*nodeJSON `json:"children,omitempty"`
	Permissions string               `json:"permissions,omitempty"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func toJSON(n *Node) *nodeJSON {
	out := &nodeJSON{
		Name:        n.name,
		Type:        n.kind.String(),
		Permissions: n.perm,
		UpdatedAt:   n.updatedAt,
	}
	if n.IsDir() {
		out.Children = make(map[string]*nodeJSON, len(n.children))
		for name, child := range n.children {
			out.Children[name] = toJSON(child)
		}
		return out
	}
	content := n.Content()
	out.Content = &content
	return out
}

func fromJSON(in *nodeJSON) *Node {
	var n *Node
	if in.Type == Directory.String() {
		n = NewDir(in.Name, in.UpdatedAt)
		for name, child := range in.Children {
			if child == nil {
				continue
			}
			child.Name = name
			n.children[name] = fromJSON(child)
		}
	} else {
		content := ""
		if in.Content != nil {
			content = *in.Content
		}
		n = NewFile(in.Name, content, in.UpdatedAt)
	}
	if len(in.Permissions) == 10 {
		n.perm = in.Permissions
	}
	return n
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(n))
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = *fromJSON(&in)
	return nil
}
