//go:build linux || darwin
// +build linux darwin

package vfsmount

import (
	"context"
	"path"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// Node is one path in the mounted tree. It holds no content of its own and
// resolves its path against the current snapshot on every call.
type Node struct {
	fs.Inode
	source Source
	path   string
}

var (
	_ fs.NodeLookuper   = (*Node)(nil)
	_ fs.NodeReaddirer  = (*Node)(nil)
	_ fs.NodeGetattrer  = (*Node)(nil)
	_ fs.NodeOpener     = (*Node)(nil)
	_ fs.NodeReadlinker = (*Node)(nil)
)

// NewRoot creates the root node for source.
func NewRoot(source Source) *Node {
	return &Node{source: source, path: "/"}
}

func (n *Node) stat() (*vfs.Node, syscall.Errno) {
	v, err := n.source().Stat(n.path)
	if err != nil {
		return nil, syscall.ENOENT
	}
	return v, 0
}

func fileType(v *vfs.Node) uint32 {
	switch {
	case v.IsDir():
		return syscall.S_IFDIR
	case v.IsSymlink():
		return syscall.S_IFLNK
	}
	return syscall.S_IFREG
}

func fillAttr(a *fuse.Attr, v *vfs.Node) {
	a.Mode = fileType(v) | permBits(v.Permissions())
	a.Size = uint64(v.Size())
	if v.IsSymlink() {
		a.Size = uint64(len(v.LinkTarget()))
	}
	mtime := uint64(v.UpdatedAt().Unix())
	a.Mtime, a.Ctime, a.Atime = mtime, mtime, mtime
	a.Nlink = 1
	if v.IsDir() {
		a.Nlink = 2
	}
}

// Lookup implements NodeLookuper.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	dir, errno := n.stat()
	if errno != 0 {
		return nil, errno
	}
	child := dir.Child(name)
	if child == nil {
		return nil, syscall.ENOENT
	}
	fillAttr(&out.Attr, child)

	node := &Node{source: n.source, path: path.Join(n.path, name)}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: fileType(child)}), 0
}

// Readdir implements NodeReaddirer.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	dir, errno := n.stat()
	if errno != 0 {
		return nil, errno
	}
	if !dir.IsDir() {
		return nil, syscall.ENOTDIR
	}

	entries := make([]fuse.DirEntry, 0, dir.Len())
	for _, child := range dir.Children() {
		entries = append(entries, fuse.DirEntry{Name: child.Name(), Mode: fileType(child)})
	}
	return fs.NewListDirStream(entries), 0
}

// Getattr implements NodeGetattrer.
func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	v, errno := n.stat()
	if errno != 0 {
		return errno
	}
	fillAttr(&out.Attr, v)
	return 0
}

// Open implements NodeOpener. The handle keeps the content as it was when
// the file was opened.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	v, errno := n.stat()
	if errno != 0 {
		return nil, 0, errno
	}
	if v.IsDir() {
		return nil, 0, syscall.EISDIR
	}
	return &handle{data: []byte(v.Content())}, fuse.FOPEN_DIRECT_IO, 0
}

// Readlink implements NodeReadlinker.
func (n *Node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	v, errno := n.stat()
	if errno != 0 {
		return nil, errno
	}
	if !v.IsSymlink() {
		return nil, syscall.EINVAL
	}
	return []byte(v.LinkTarget()), 0
}

type handle struct {
	data []byte
}

var _ fs.FileReader = (*handle)(nil)

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off >= int64(len(h.data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(h.data)) {
		end = int64(len(h.data))
	}
	return fuse.ReadResultData(h.data[off:end]), 0
}

// Mount serves source read-only at dir. The returned server is already
// serving; call Unmount to detach it.
func Mount(dir string, source Source, logger *zap.Logger) (Server, error) {
	var zero time.Duration
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:  "vsh",
			Name:    "vsh",
			Options: []string{"ro", "default_permissions"},
		},
		EntryTimeout:    &zero,
		AttrTimeout:     &zero,
		NegativeTimeout: &zero,
	}

	server, err := fs.Mount(dir, NewRoot(source), opts)
	if err != nil {
		return nil, err
	}
	logger.Info("virtual tree mounted", zap.String("dir", dir))
	return server, nil
}
