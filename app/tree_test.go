package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/config"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/vfs"
)

var now = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildTreeSeeds(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	writeFile(t, seed, "- path: notes.txt\n  content: hi\n- path: /srv/app.conf\n  content: port=80\n")
	host := filepath.Join(dir, "host")
	writeFile(t, filepath.Join(host, "lab", "task.txt"), "do it")

	cfg := config.Default()
	cfg.Seed.File = seed
	cfg.Seed.Dir = host

	tree, err := buildTree(cfg, "", now)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	tests := []struct {
		path, want string
	}{
		{vfs.Home + "/notes.txt", "hi"},
		{"/srv/app.conf", "port=80"},
		{vfs.Home + "/lab/task.txt", "do it"},
		{"/etc/hostname", "learning-lab"},
	}
	for _, tt := range tests {
		n := tree.Lookup("/", tt.path)
		if n == nil {
			t.Errorf("%s is missing", tt.path)
			continue
		}
		if n.Content() != tt.want {
			t.Errorf("%s: expected %q got %q", tt.path, tt.want, n.Content())
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "tree.json")

	base, err := vfs.DefaultTree(now).WriteFile(vfs.Home+"/a.txt", "alpha", now)
	if err != nil {
		t.Fatal(err)
	}
	if err := persist(base, options{save: snap, export: filepath.Join(dir, "out")}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	tree, err := buildTree(config.Default(), snap, now)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	if n := tree.Lookup(vfs.Home, "a.txt"); n == nil || n.Content() != "alpha" {
		t.Errorf("snapshot lost a.txt")
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "a.txt"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("unexpected exported content %q", data)
	}
}

func TestBuildTreeErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"name":"x","type":"file","content":"no"}`)

	tests := []struct {
		name     string
		snapshot string
		seed     string
	}{
		{name: "missing snapshot", snapshot: filepath.Join(dir, "nope.json")},
		{name: "file root", snapshot: bad},
		{name: "missing seed", seed: filepath.Join(dir, "nope.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Seed.File = tt.seed
			if _, err := buildTree(cfg, tt.snapshot, now); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
