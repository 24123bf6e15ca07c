// Package vfs models the in-memory filesystem tree the shell operates on.
//
// Nodes are immutable values. Every modifier returns a fresh node and every
// mutation of an FS returns a fresh FS that shares all untouched subtrees with
// the one it was derived from, so a caller holding an older FS never observes
// a change.
package vfs

import (
	"sort"
	"strings"
	"time"
)

// Kind is the node type. It never changes once a node exists.
type Kind uint8

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

const (
	DefaultDirPerm  = "drwxr-xr-x"
	DefaultFilePerm = "-rw-r--r--"
	SymlinkPerm     = "lrwxrwxrwx"
)

// dirSize is what ls -l and du report for a directory entry.
const dirSize = 4096

// Node is one file or directory entry.
type Node struct {
	name      string
	kind      Kind
	content   string
	archive   *Archive
	children  map[string]*Node
	perm      string
	updatedAt time.Time
}

// NewFile creates a file node. Content carrying an archive sentinel is
// decoded into a typed archive payload.
func NewFile(name, content string, at time.Time) *Node {
	n := &Node{name: name, kind: File, perm: DefaultFilePerm, updatedAt: at}
	if a, ok := DecodeArchive(content); ok {
		n.archive = a
		return n
	}
	n.content = content
	return n
}

// NewDir creates an empty directory node.
func NewDir(name string, at time.Time) *Node {
	return &Node{
		name:      name,
		kind:      Directory,
		children:  map[string]*Node{},
		perm:      DefaultDirPerm,
		updatedAt: at,
	}
}

// NewArchiveFile creates a file node holding an archive payload.
func NewArchiveFile(name string, a *Archive, at time.Time) *Node {
	return &Node{name: name, kind: File, archive: a, perm: DefaultFilePerm, updatedAt: at}
}

// NewSymlink creates a symbolic link node pointing at target.
func NewSymlink(name, target string, at time.Time) *Node {
	return &Node{name: name, kind: File, content: target, perm: SymlinkPerm, updatedAt: at}
}

func (n *Node) Name() string         { return n.name }
func (n *Node) Kind() Kind           { return n.kind }
func (n *Node) IsDir() bool          { return n.kind == Directory }
func (n *Node) Permissions() string  { return n.perm }
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }
func (n *Node) Archive() *Archive    { return n.archive }

// IsSymlink reports whether the node was created by ln -s.
func (n *Node) IsSymlink() bool {
	return n.kind == File && strings.HasPrefix(n.perm, "l")
}

// LinkTarget returns the path a symlink points at.
func (n *Node) LinkTarget() string {
	if !n.IsSymlink() {
		return ""
	}
	return n.content
}

// Content returns the file content. Archive payloads are rendered in their
// sentinel-prefixed wire form.
func (n *Node) Content() string {
	if n.archive != nil {
		return n.archive.Encode()
	}
	return n.content
}

// Size is the byte size reported by ls -l.
func (n *Node) Size() int64 {
	if n.kind == Directory {
		return dirSize
	}
	return int64(len(n.Content()))
}

// Child returns the named child of a directory, or nil.
func (n *Node) Child(name string) *Node {
	if n.kind != Directory {
		return nil
	}
	return n.children[name]
}

// Len is the number of children of a directory.
func (n *Node) Len() int {
	return len(n.children)
}

// ChildNames returns the sorted names of a directory's children.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the children sorted by name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, name := range n.ChildNames() {
		out = append(out, n.children[name])
	}
	return out
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// WithName returns a copy of n under a different name.
func (n *Node) WithName(name string) *Node {
	if n.name == name {
		return n
	}
	c := n.clone()
	c.name = name
	return c
}

// WithContent returns a copy of a file with new content. Permissions are kept.
func (n *Node) WithContent(content string, at time.Time) *Node {
	c := n.clone()
	c.archive = nil
	c.content = content
	if a, ok := DecodeArchive(content); ok {
		c.archive = a
		c.content = ""
	}
	c.updatedAt = at
	return c
}

// WithPermissions returns a copy carrying perm.
func (n *Node) WithPermissions(perm string) *Node {
	c := n.clone()
	c.perm = perm
	return c
}

// Touch returns a copy with a refreshed timestamp.
func (n *Node) Touch(at time.Time) *Node {
	c := n.clone()
	c.updatedAt = at
	return c
}

// WithChild returns a copy of a directory with child inserted or replaced.
func (n *Node) WithChild(child *Node) *Node {
	c := n.clone()
	c.children = make(map[string]*Node, len(n.children)+1)
	for k, v := range n.children {
		c.children[k] = v
	}
	c.children[child.name] = child
	return c
}

// WithoutChild returns a copy of a directory with the named child removed.
func (n *Node) WithoutChild(name string) *Node {
	if _, ok := n.children[name]; !ok {
		return n
	}
	c := n.clone()
	c.children = make(map[string]*Node, len(n.children))
	for k, v := range n.children {
		if k != name {
			c.children[k] = v
		}
	}
	return c
}
