// Package vfsmount exposes a session's virtual tree on the host as a
// read-only FUSE filesystem.
package vfsmount

import (
	"errors"

	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

var ErrUnsupported = errors.New("vfsmount: FUSE is not available on this platform")

// Source returns the tree to serve. It is called on every lookup, so the
// mount follows the session as it changes.
type Source func() *vfs.FS

// Server is a running mount.
type Server interface {
	Unmount() error
	Wait()
}

// permBits turns an ls style permission string such as "drwxr-xr-x" into
// the low nine mode bits. Malformed strings yield 0.
func permBits(perm string) uint32 {
	if len(perm) != 10 {
		return 0
	}
	var bits uint32
	for i, c := range perm[1:] {
		if c != '-' {
			bits |= 1 << (8 - i)
		}
	}
	return bits
}
