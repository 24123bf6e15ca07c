// Package config loads the shell configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShoukiYano/Linux-learning-system-sub000/internal/logging"
	"github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
)

// Config holds all shell configuration.
type Config struct {
	Log      LogConfig     `yaml:"log"`
	Hostname string        `yaml:"hostname"`
	Seed     SeedConfig    `yaml:"seed"`
	Async    AsyncConfig   `yaml:"async"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Mount    MountConfig   `yaml:"mount"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SeedConfig names where the initial tree comes from. File is a YAML list
// of {path, content}; Dir is a host directory copied into the home
// directory.
type SeedConfig struct {
	File string `yaml:"file"`
	Dir  string `yaml:"dir"`
}

// AsyncConfig controls the progress display of zip and unzip.
type AsyncConfig struct {
	Duration time.Duration `yaml:"duration"`
	Steps    int           `yaml:"steps"`
}

type MetricsConfig struct {
	Output string `yaml:"output"`
}

type MountConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "warn", Format: "console", Output: "stderr"},
		Hostname: shell.DefaultHostname,
		Async:    AsyncConfig{Duration: 1500 * time.Millisecond, Steps: 5},
	}
}

// Load reads path, when set, over the defaults and then applies VSH_*
// environment overrides. A missing file is an error only when path was
// given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Log.Level = envOr("VSH_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("VSH_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Output = envOr("VSH_LOG_OUTPUT", cfg.Log.Output)
	cfg.Hostname = envOr("VSH_HOSTNAME", cfg.Hostname)
	cfg.Seed.File = envOr("VSH_SEED_FILE", cfg.Seed.File)
	cfg.Seed.Dir = envOr("VSH_SEED_DIR", cfg.Seed.Dir)
	cfg.Async.Duration = envDuration("VSH_ASYNC_DURATION", cfg.Async.Duration)
	cfg.Async.Steps = envInt("VSH_ASYNC_STEPS", cfg.Async.Steps)
	cfg.Metrics.Output = envOr("VSH_METRICS_OUTPUT", cfg.Metrics.Output)
	cfg.Mount.Dir = envOr("VSH_MOUNT_DIR", cfg.Mount.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	ErrBadSteps    = errors.New("async.steps must be at least 1")
	ErrBadDuration = errors.New("async.duration must not be negative")
)

func (c *Config) Validate() error {
	if c.Async.Steps < 1 {
		return ErrBadSteps
	}
	if c.Async.Duration < 0 {
		return ErrBadDuration
	}
	if c.Seed.Dir != "" {
		info, err := os.Stat(c.Seed.Dir)
		if err != nil {
			return fmt.Errorf("seed dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("seed dir %s: %w", c.Seed.Dir, fs.ErrInvalid)
		}
	}
	return nil
}

// Logging converts the log section for the logging package.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, OutputPath: c.Log.Output}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
