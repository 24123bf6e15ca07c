package logging

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		level zapcore.Level
	}{
		{name: "debug console", cfg: Config{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "warn json", cfg: Config{Level: "warn", Format: "json"}, level: zapcore.WarnLevel},
		{name: "unknown level", cfg: Config{Level: "loud"}, level: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.OutputPath = filepath.Join(t.TempDir(), "vsh.log")
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer l.Sync()

			if !l.Core().Enabled(tt.level) {
				t.Errorf("expected %s to be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && l.Core().Enabled(tt.level-1) {
				t.Errorf("expected %s to be disabled", tt.level-1)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected a no-op logger for an empty context")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithSession(WithContext(context.Background(), zap.New(core)), "abc")
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry got %d", len(entries))
	}
	if got := entries[0].ContextMap()["session_id"]; got != "abc" {
		t.Errorf("expected session_id abc got %v", got)
	}
}
