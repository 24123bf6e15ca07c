package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/config"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

// buildTree starts from the snapshot when given, else the default template,
// then applies the configured seed file and host directory in that order.
func buildTree(cfg *config.Config, snapshot string, now time.Time) (*vfs.FS, error) {
	tree := vfs.DefaultTree(now)
	if snapshot != "" {
		data, err := os.ReadFile(snapshot)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		tree = &vfs.FS{}
		if err := json.Unmarshal(data, tree); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", snapshot, err)
		}
	}

	if cfg.Seed.File != "" {
		f, err := os.Open(cfg.Seed.File)
		if err != nil {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()

		files, err := vfs.LoadSeedFiles(f)
		if err != nil {
			return nil, err
		}
		if tree, err = vfs.Seed(tree, files, now); err != nil {
			return nil, err
		}
	}

	if cfg.Seed.Dir != "" {
		host := afero.NewReadOnlyFs(afero.NewOsFs())
		var err error
		if tree, err = vfs.Import(host, cfg.Seed.Dir, tree, vfs.Home, now); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// persist writes the final tree where the flags ask for it.
func persist(tree *vfs.FS, o options) error {
	if o.save != "" {
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := os.WriteFile(o.save, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}
	if o.export != "" {
		if err := vfs.Export(tree, vfs.Home, afero.NewOsFs(), o.export); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}
