package vfs

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedFile is one {path, content} pair used to populate a fresh tree.
type SeedFile struct {
	Path    string `yaml:"path" json:"path"`
	Content string `yaml:"content" json:"content"`
}

var templateFiles = []SeedFile{
	{Path: "/etc/hostname", Content: "learning-lab"},
	{Path: "/etc/os-release", Content: "NAME=\"Ubuntu\"\nVERSION=\"22.04.3 LTS (Jammy Jellyfish)\"\nID=ubuntu\nPRETTY_NAME=\"Ubuntu 22.04.3 LTS\""},
	{Path: "/etc/passwd", Content: "root:x:0:0:root:/root:/bin/bash\nstudent:x:1000:1000:student:/home/student:/bin/bash"},
	{Path: "/etc/nginx/nginx.conf", Content: "user www-data;\nworker_processes auto;\n\nevents {\n    worker_connections 768;\n}"},
	{Path: "/var/log/syslog", Content: ""},
	{Path: "/var/www/html/index.html", Content: "<h1>It works!</h1>"},
	{Path: Home + "/.bashrc", Content: "# ~/.bashrc\nexport PS1='\\u@\\h:\\w\\$ '"},
}

var templateDirs = []string{"/bin", "/usr/bin", "/usr/local", "/opt", "/root", "/tmp"}

// DefaultTree returns the base template every session starts from.
func DefaultTree(at time.Time) *FS {
	f := Empty(at)
	var err error
	for _, dir := range templateDirs {
		if f, err = f.MkdirAll(dir, at); err != nil {
			panic(err)
		}
	}
	for _, sf := range templateFiles {
		if f, err = f.WriteFileAll(sf.Path, sf.Content, at); err != nil {
			panic(err)
		}
	}
	return f
}

// Seed applies files onto base as sequential writes, creating parent
// directories as needed. Relative paths are taken from Home.
func Seed(base *FS, files []SeedFile, at time.Time) (*FS, error) {
	f := base
	for _, sf := range files {
		abs := Normalize(Home, sf.Path)
		next, err := f.WriteFileAll(abs, sf.Content, at)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", sf.Path, err)
		}
		f = next
	}
	return f, nil
}

// LoadSeedFiles decodes a YAML list of {path, content} pairs.
func LoadSeedFiles(r io.Reader) ([]SeedFile, error) {
	var files []SeedFile
	if err := yaml.NewDecoder(r).Decode(&files); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return files, nil
}
