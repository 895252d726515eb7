package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
backend:
  url: "http://10.0.0.5:8000"
poll:
  suggestions: 30s
  charts_idle: 1m
stream:
  reconnect_delay: 2s
query:
  recent_limit: 25
charts:
  dir: /tmp/charts
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.URL != "http://10.0.0.5:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Poll.Suggestions != 30*time.Second {
		t.Errorf("Poll.Suggestions = %s, want 30s", cfg.Poll.Suggestions)
	}
	if cfg.Poll.ChartsIdle != time.Minute {
		t.Errorf("Poll.ChartsIdle = %s, want 1m", cfg.Poll.ChartsIdle)
	}
	if cfg.Stream.ReconnectDelay != 2*time.Second {
		t.Errorf("Stream.ReconnectDelay = %s, want 2s", cfg.Stream.ReconnectDelay)
	}
	if cfg.Query.RecentLimit != 25 {
		t.Errorf("Query.RecentLimit = %d, want 25", cfg.Query.RecentLimit)
	}
	if cfg.Charts.Dir != "/tmp/charts" {
		t.Errorf("Charts.Dir = %q", cfg.Charts.Dir)
	}

	// Unset fields keep their defaults.
	if cfg.Poll.Health != 5*time.Second {
		t.Errorf("Poll.Health = %s, want default 5s", cfg.Poll.Health)
	}
	if cfg.Poll.State != 20*time.Second {
		t.Errorf("Poll.State = %s, want default 20s", cfg.Poll.State)
	}
	if cfg.Query.Minutes != 10 {
		t.Errorf("Query.Minutes = %d, want default 10", cfg.Query.Minutes)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %s, want default 10s", cfg.Backend.Timeout)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg.Backend.URL != "http://localhost:8000" {
			t.Errorf("Load(%q).Backend.URL = %q", path, cfg.Backend.URL)
		}
		if cfg.Poll.FinalDelay != 500*time.Millisecond {
			t.Errorf("Load(%q).Poll.FinalDelay = %s", path, cfg.Poll.FinalDelay)
		}
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "backend: [", "parse"},
		{"bad scheme", "backend:\n  url: ws://host", "backend.url"},
		{"zero period", "poll:\n  health: 0s", "poll.health"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Log.Level = tt.level
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
