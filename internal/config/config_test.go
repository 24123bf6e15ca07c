package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vsh.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hostname != "learning-lab" {
		t.Errorf("unexpected hostname %q", cfg.Hostname)
	}
	if cfg.Async.Steps != 5 || cfg.Async.Duration != 1500*time.Millisecond {
		t.Errorf("unexpected async defaults %+v", cfg.Async)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
hostname: lab-1
async:
  duration: 2s
  steps: 4
metrics:
  output: /tmp/vsh.prom
`)
	t.Setenv("VSH_HOSTNAME", "override")
	t.Setenv("VSH_ASYNC_STEPS", "10")
	t.Setenv("VSH_ASYNC_DURATION", "not-a-duration")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name      string
		got, want any
	}{
		{"log level", cfg.Log.Level, "debug"},
		{"log format", cfg.Log.Format, "json"},
		{"log output kept from defaults", cfg.Log.Output, "stderr"},
		{"hostname from env", cfg.Hostname, "override"},
		{"steps from env", cfg.Async.Steps, 10},
		{"bad env duration ignored", cfg.Async.Duration, 2 * time.Second},
		{"metrics output", cfg.Metrics.Output, "/tmp/vsh.prom"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v got %v", tt.name, tt.want, tt.got)
		}
	}

	if lc := cfg.Logging(); lc.Level != "debug" || lc.OutputPath != "stderr" {
		t.Errorf("unexpected logging config %+v", lc)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error got %v", err)
	}

	if _, err := Load(writeConfig(t, "async: [")); err == nil {
		t.Errorf("expected a parse error")
	}

	if _, err := Load(writeConfig(t, "async:\n  steps: 0\n")); !errors.Is(err, ErrBadSteps) {
		t.Errorf("expected ErrBadSteps got %v", err)
	}

	if _, err := Load(writeConfig(t, "seed:\n  dir: /definitely/not/here\n")); err == nil {
		t.Errorf("expected a seed dir error")
	}
}
