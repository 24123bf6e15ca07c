//go:build linux || darwin
// +build linux darwin

package vfsmount

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// These tests drive the node methods directly; an actual mount needs
// privileges the test environment usually lacks.

var at = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

func testTree(t *testing.T) *vfs.FS {
	t.Helper()
	f, err := vfs.Seed(vfs.Empty(at), []vfs.SeedFile{
		{Path: "/lab/a.txt", Content: "hello"},
		{Path: "/lab/b.txt", Content: ""},
	}, at)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	f, err = f.Put("/lab/link", vfs.NewSymlink("link", "/lab/a.txt", at))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return f
}

func TestGetattr(t *testing.T) {
	tree := testTree(t)
	src := func() *vfs.FS { return tree }
	ctx := context.Background()

	tests := []struct {
		path string
		mode uint32
		size uint64
		err  syscall.Errno
	}{
		{"/lab", syscall.S_IFDIR | 0o755, 4096, 0},
		{"/lab/a.txt", syscall.S_IFREG | 0o644, 5, 0},
		{"/lab/link", syscall.S_IFLNK | 0o777, uint64(len("/lab/a.txt")), 0},
		{"/missing", 0, 0, syscall.ENOENT},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			n := &Node{source: src, path: tt.path}
			var out fuse.AttrOut
			if errno := n.Getattr(ctx, nil, &out); errno != tt.err {
				t.Fatalf("expected errno %v got %v", tt.err, errno)
			}
			if tt.err != 0 {
				return
			}
			if out.Mode != tt.mode {
				t.Errorf("expected mode %o got %o", tt.mode, out.Mode)
			}
			if out.Size != tt.size {
				t.Errorf("expected size %d got %d", tt.size, out.Size)
			}
			if out.Mtime != uint64(at.Unix()) {
				t.Errorf("unexpected mtime %d", out.Mtime)
			}
		})
	}
}

func TestReaddir(t *testing.T) {
	tree := testTree(t)
	n := &Node{source: func() *vfs.FS { return tree }, path: "/lab"}

	stream, errno := n.Readdir(context.Background())
	if errno != 0 {
		t.Fatalf("Readdir: %v", errno)
	}
	defer stream.Close()

	var names []string
	for stream.HasNext() {
		e, errno := stream.Next()
		if errno != 0 {
			t.Fatalf("Next: %v", errno)
		}
		names = append(names, e.Name)
	}
	want := []string{"a.txt", "b.txt", "link"}
	if len(names) != len(want) {
		t.Fatalf("expected %v got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d: expected %s got %s", i, want[i], names[i])
		}
	}

	file := &Node{source: n.source, path: "/lab/a.txt"}
	if _, errno := file.Readdir(context.Background()); errno != syscall.ENOTDIR {
		t.Errorf("expected ENOTDIR got %v", errno)
	}
}

func TestOpenRead(t *testing.T) {
	tree := testTree(t)
	n := &Node{source: func() *vfs.FS { return tree }, path: "/lab/a.txt"}
	ctx := context.Background()

	if _, _, errno := n.Open(ctx, syscall.O_WRONLY); errno != syscall.EROFS {
		t.Errorf("write open: expected EROFS got %v", errno)
	}

	fh, _, errno := n.Open(ctx, syscall.O_RDONLY)
	if errno != 0 {
		t.Fatalf("Open: %v", errno)
	}
	h := fh.(*handle)

	tests := []struct {
		off  int64
		size int
		want string
	}{
		{0, 64, "hello"},
		{1, 3, "ell"},
		{5, 8, ""},
		{9, 8, ""},
	}
	for _, tt := range tests {
		res, errno := h.Read(ctx, make([]byte, tt.size), tt.off)
		if errno != 0 {
			t.Fatalf("Read: %v", errno)
		}
		got, _ := res.Bytes(nil)
		if string(got) != tt.want {
			t.Errorf("Read(%d, %d): expected %q got %q", tt.off, tt.size, tt.want, got)
		}
	}

	dir := &Node{source: n.source, path: "/lab"}
	if _, _, errno := dir.Open(ctx, syscall.O_RDONLY); errno != syscall.EISDIR {
		t.Errorf("expected EISDIR got %v", errno)
	}
}

func TestFollowsSource(t *testing.T) {
	tree := testTree(t)
	n := &Node{source: func() *vfs.FS { return tree }, path: "/lab/c.txt"}

	var out fuse.AttrOut
	if errno := n.Getattr(context.Background(), nil, &out); errno != syscall.ENOENT {
		t.Fatalf("expected ENOENT got %v", errno)
	}

	next, err := tree.WriteFile("/lab/c.txt", "new", at)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tree = next

	if errno := n.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr after write: %v", errno)
	}
	if out.Size != 3 {
		t.Errorf("expected size 3 got %d", out.Size)
	}
}

func TestReadlink(t *testing.T) {
	tree := testTree(t)
	src := func() *vfs.FS { return tree }

	got, errno := (&Node{source: src, path: "/lab/link"}).Readlink(context.Background())
	if errno != 0 || string(got) != "/lab/a.txt" {
		t.Errorf("unexpected readlink %q %v", got, errno)
	}
	if _, errno := (&Node{source: src, path: "/lab/a.txt"}).Readlink(context.Background()); errno != syscall.EINVAL {
		t.Errorf("expected EINVAL got %v", errno)
	}
}
