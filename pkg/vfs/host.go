package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Import copies the host tree under dir into the virtual tree at dest.
// Directories are merged, files overwrite.
func Import(src afero.Fs, dir string, base *FS, dest string, at time.Time) (*FS, error) {
	f, err := base.MkdirAll(dest, at)
	if err != nil {
		return nil, err
	}

	err = afero.Walk(src, dir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		abs := Normalize(dest, filepath.ToSlash(rel))

		if info.IsDir() {
			f, err = f.MkdirAll(abs, at)
			return err
		}
		data, err := afero.ReadFile(src, p)
		if err != nil {
			return err
		}
		f, err = f.WriteFile(abs, string(data), at)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}
	return f, nil
}

// Export writes the subtree at from into dst under dir.
func Export(f *FS, from string, dst afero.Fs, dir string) error {
	from = Normalize("/", from)
	return f.Walk(from, func(abs string, n *Node) error {
		rel := abs[len(from):]
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if n.IsDir() {
			return dst.MkdirAll(target, 0o755)
		}
		return afero.WriteFile(dst, target, []byte(n.Content()), 0o644)
	})
}
