// Package config loads the console configuration from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Poll    PollConfig    `yaml:"poll"`
	Stream  StreamConfig  `yaml:"stream"`
	Query   QueryConfig   `yaml:"query"`
	Log     LogConfig     `yaml:"log"`
	Charts  ChartsConfig  `yaml:"charts"`
	Export  ExportConfig  `yaml:"export"`
}

type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PollConfig struct {
	Health       time.Duration `yaml:"health"`
	Suggestions  time.Duration `yaml:"suggestions"`
	State        time.Duration `yaml:"state"`
	ChartsActive time.Duration `yaml:"charts_active"`
	ChartsIdle   time.Duration `yaml:"charts_idle"`
	FinalDelay   time.Duration `yaml:"final_delay"`
	ClearDelay   time.Duration `yaml:"clear_delay"`
}

type StreamConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type QueryConfig struct {
	Minutes       int `yaml:"minutes"`
	TimelineHours int `yaml:"timeline_hours"`
	TrendHours    int `yaml:"trend_hours"`
	RecentLimit   int `yaml:"recent_limit"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type ChartsConfig struct {
	// Dir, when set, receives a PNG per chart surface on every refresh and
	// the latest camera frame as frame.jpg.
	Dir    string `yaml:"dir"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Poll: PollConfig{
			Health:       5 * time.Second,
			Suggestions:  15 * time.Second,
			State:        20 * time.Second,
			ChartsActive: 10 * time.Second,
			ChartsIdle:   30 * time.Second,
			FinalDelay:   500 * time.Millisecond,
			ClearDelay:   2 * time.Second,
		},
		Stream: StreamConfig{
			ReconnectDelay: time.Second,
		},
		Query: QueryConfig{
			Minutes:       10,
			TimelineHours: 2,
			TrendHours:    24,
			RecentLimit:   10,
		},
		Log: LogConfig{
			File:  "syntwin-console.log",
			Level: "info",
		},
		Charts: ChartsConfig{
			Width:  640,
			Height: 320,
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the console cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		return fmt.Errorf("backend.url %q: want http:// or https://", c.Backend.URL)
	}
	for name, d := range map[string]time.Duration{
		"poll.health":            c.Poll.Health,
		"poll.suggestions":       c.Poll.Suggestions,
		"poll.state":             c.Poll.State,
		"poll.charts_active":     c.Poll.ChartsActive,
		"poll.charts_idle":       c.Poll.ChartsIdle,
		"stream.reconnect_delay": c.Stream.ReconnectDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level. Unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
