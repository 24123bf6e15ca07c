package vfs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"time"
)

var (
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
	ErrNotEmpty = errors.New("directory not empty")
	ErrRoot     = errors.New("operation not permitted on /")
)

// FS is a snapshot of the whole tree. The zero value is not usable; build one
// with New or Empty.
type FS struct {
	root *Node
}

// New wraps root, which must be a directory.
func New(root *Node) *FS {
	if root == nil || !root.IsDir() {
		panic("vfs: root must be a directory")
	}
	return &FS{root: root.WithName("")}
}

// Empty returns a tree holding only /.
func Empty(at time.Time) *FS {
	return New(NewDir("", at))
}

func (f *FS) Root() *Node { return f.root }

func pathErr(op, p string, err error) error {
	return &fs.PathError{Op: op, Path: p, Err: err}
}

// Stat looks up an absolute path.
func (f *FS) Stat(abs string) (*Node, error) {
	segs := Split(abs)
	cur := f.root
	for _, seg := range segs {
		if !cur.IsDir() {
			return nil, pathErr("stat", abs, ErrNotDir)
		}
		next := cur.children[seg]
		if next == nil {
			return nil, pathErr("stat", abs, fs.ErrNotExist)
		}
		cur = next
	}
	return cur, nil
}

// Lookup resolves p against cwd. It returns nil when nothing is there.
func (f *FS) Lookup(cwd, p string) *Node {
	return Resolve(f.root, cwd, p)
}

// updateDir rebuilds the path to the directory at segs, replacing that
// directory with fn's result. Only the nodes on the path are copied.
func updateDir(n *Node, segs []string, fn func(dir *Node) (*Node, error)) (*Node, error) {
	if !n.IsDir() {
		return nil, ErrNotDir
	}
	if len(segs) == 0 {
		return fn(n)
	}
	child := n.children[segs[0]]
	if child == nil {
		return nil, fs.ErrNotExist
	}
	updated, err := updateDir(child, segs[1:], fn)
	if err != nil {
		return nil, err
	}
	return n.WithChild(updated), nil
}

func (f *FS) withParent(op, abs string, fn func(dir *Node, name string) (*Node, error)) (*FS, error) {
	segs := Split(abs)
	if len(segs) == 0 {
		return nil, pathErr(op, abs, ErrRoot)
	}
	name := segs[len(segs)-1]
	root, err := updateDir(f.root, segs[:len(segs)-1], func(dir *Node) (*Node, error) {
		return fn(dir, name)
	})
	if err != nil {
		return nil, pathErr(op, abs, err)
	}
	return &FS{root: root}, nil
}

// Put stores n at abs, replacing whatever is there. The parent must exist.
func (f *FS) Put(abs string, n *Node) (*FS, error) {
	return f.withParent("put", abs, func(dir *Node, name string) (*Node, error) {
		return dir.WithChild(n.WithName(name)), nil
	})
}

// Remove deletes the node at abs together with its subtree.
func (f *FS) Remove(abs string) (*FS, error) {
	return f.withParent("remove", abs, func(dir *Node, name string) (*Node, error) {
		if dir.children[name] == nil {
			return nil, fs.ErrNotExist
		}
		return dir.WithoutChild(name), nil
	})
}

// Update replaces the node at abs with fn's result.
func (f *FS) Update(abs string, fn func(n *Node) (*Node, error)) (*FS, error) {
	if len(Split(abs)) == 0 {
		root, err := fn(f.root)
		if err != nil {
			return nil, pathErr("update", abs, err)
		}
		return New(root), nil
	}
	return f.withParent("update", abs, func(dir *Node, name string) (*Node, error) {
		cur := dir.children[name]
		if cur == nil {
			return nil, fs.ErrNotExist
		}
		next, err := fn(cur)
		if err != nil {
			return nil, err
		}
		return dir.WithChild(next.WithName(name)), nil
	})
}

// WriteFile creates or replaces the content of the file at abs.
func (f *FS) WriteFile(abs, content string, at time.Time) (*FS, error) {
	return f.withParent("write", abs, func(dir *Node, name string) (*Node, error) {
		cur := dir.children[name]
		if cur == nil {
			return dir.WithChild(NewFile(name, content, at)), nil
		}
		if cur.IsDir() {
			return nil, ErrIsDir
		}
		return dir.WithChild(cur.WithContent(content, at)), nil
	})
}

// Mkdir creates a single directory. The parent must exist and abs must not.
func (f *FS) Mkdir(abs string, at time.Time) (*FS, error) {
	return f.withParent("mkdir", abs, func(dir *Node, name string) (*Node, error) {
		if dir.children[name] != nil {
			return nil, fs.ErrExist
		}
		return dir.WithChild(NewDir(name, at)), nil
	})
}

// MkdirAll creates abs and every missing parent. Existing directories are
// left alone, so running it twice yields the same tree.
func (f *FS) MkdirAll(abs string, at time.Time) (*FS, error) {
	root, err := mkdirAll(f.root, Split(abs), at)
	if err != nil {
		return nil, pathErr("mkdir", abs, err)
	}
	if root == f.root {
		return f, nil
	}
	return &FS{root: root}, nil
}

func mkdirAll(n *Node, segs []string, at time.Time) (*Node, error) {
	if !n.IsDir() {
		return nil, ErrNotDir
	}
	if len(segs) == 0 {
		return n, nil
	}
	child := n.children[segs[0]]
	if child == nil {
		child = NewDir(segs[0], at)
	}
	updated, err := mkdirAll(child, segs[1:], at)
	if err != nil {
		return nil, err
	}
	if updated == n.children[segs[0]] {
		return n, nil
	}
	return n.WithChild(updated), nil
}

// WriteFileAll writes a file, creating missing parent directories first.
func (f *FS) WriteFileAll(abs, content string, at time.Time) (*FS, error) {
	next, err := f.MkdirAll(Dir(abs), at)
	if err != nil {
		return nil, err
	}
	return next.WriteFile(abs, content, at)
}

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(abs string, n *Node) error

// SkipDir returned from a WalkFunc skips the directory's children.
var SkipDir = errors.New("skip this directory")

// Walk visits abs and everything below it depth-first, children in name order.
func (f *FS) Walk(abs string, fn WalkFunc) error {
	n, err := f.Stat(abs)
	if err != nil {
		return err
	}
	return walk(Normalize("/", abs), n, fn)
}

func walk(abs string, n *Node, fn WalkFunc) error {
	if err := fn(abs, n); err != nil {
		if errors.Is(err, SkipDir) {
			return nil
		}
		return err
	}
	if !n.IsDir() {
		return nil
	}
	for _, child := range n.Children() {
		if err := walk(Join(abs, child.name), child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of directories (root included) and files.
func (f *FS) Count() (dirs, files int) {
	_ = walk("/", f.root, func(_ string, n *Node) error {
		if n.IsDir() {
			dirs++
		} else {
			files++
		}
		return nil
	})
	return dirs, files
}

func (f *FS) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.root)
}

func (f *FS) UnmarshalJSON(data []byte) error {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return err
	}
	if !root.IsDir() {
		return errors.New("vfs: snapshot root is not a directory")
	}
	f.root = root.WithName("")
	return nil
}
