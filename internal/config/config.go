// Package config provides configuration types, defaults, and persistence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"duet/internal/log"
	"duet/internal/tracing"
)

// Config holds all configuration options.
type Config struct {
	Sync    SyncConfig     `mapstructure:"sync"`
	Search  SearchConfig   `mapstructure:"search"`
	UI      UIConfig       `mapstructure:"ui"`
	Theme   ThemeConfig    `mapstructure:"theme"`
	History HistoryConfig  `mapstructure:"history"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// SyncConfig tunes the scroll synchronization engine.
type SyncConfig struct {
	// AnchorFraction is where in the viewport the sync anchor sits, as a
	// fraction of its height from the top.
	AnchorFraction float64 `mapstructure:"anchor_fraction"`

	// UpdateThreshold is the minimum position delta, in cells, before the
	// counterpart pane is repositioned.
	UpdateThreshold float64 `mapstructure:"update_threshold"`

	// EchoTolerance is how close an incoming scroll event must be to the
	// last programmatic position to be discarded as an echo.
	EchoTolerance float64 `mapstructure:"echo_tolerance"`

	// PrimaryTimeoutMs is how long a pane stays the scroll primary after
	// its last user-initiated event.
	PrimaryTimeoutMs int `mapstructure:"primary_timeout_ms"`
}

// PrimaryTimeout returns the primary window as a duration.
func (s SyncConfig) PrimaryTimeout() time.Duration {
	return time.Duration(s.PrimaryTimeoutMs) * time.Millisecond
}

// SearchConfig tunes the match finder and cross-file coordinator.
type SearchConfig struct {
	// MatchCap is the per-file match cap.
	MatchCap int `mapstructure:"match_cap"`

	// InitialDisplay is how many matches per file the results list shows
	// before expansion.
	InitialDisplay int `mapstructure:"initial_display"`

	// DisplayIncrement is the expansion step.
	DisplayIncrement int `mapstructure:"display_increment"`
}

// UIConfig holds user interface options.
type UIConfig struct {
	ShowStatusBar  bool `mapstructure:"show_status_bar"`
	ShowScrollbars bool `mapstructure:"show_scrollbars"`
	ShowConnectors bool `mapstructure:"show_connectors"`
	// FileListWidth is the width of the file panel in cells.
	FileListWidth int `mapstructure:"file_list_width"`
}

// ThemeConfig holds color overrides. Values are hex colors.
type ThemeConfig struct {
	Addition  string `mapstructure:"addition"`
	Deletion  string `mapstructure:"deletion"`
	Change    string `mapstructure:"change"`
	Highlight string `mapstructure:"highlight"`
	Subtle    string `mapstructure:"subtle"`
	Error     string `mapstructure:"error"`
}

// HistoryConfig controls search history persistence.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the history database location.
	Path string `mapstructure:"path"`
}

// WatchConfig controls filesystem watching.
type WatchConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Sync: SyncConfig{
			AnchorFraction:   1.0 / 3.0,
			UpdateThreshold:  2,
			EchoTolerance:    3,
			PrimaryTimeoutMs: 150,
		},
		Search: SearchConfig{
			MatchCap:         1000,
			InitialDisplay:   5,
			DisplayIncrement: 10,
		},
		UI: UIConfig{
			ShowStatusBar:  true,
			ShowScrollbars: true,
			ShowConnectors: true,
			FileListWidth:  32,
		},
		Theme: ThemeConfig{
			Addition:  "#73F59F",
			Deletion:  "#FF8787",
			Change:    "#54A0FF",
			Highlight: "#F1FA8C",
			Subtle:    "#6C7086",
			Error:     "#FF5555",
		},
		History: HistoryConfig{Enabled: true},
		Watch:   WatchConfig{Enabled: true},
		Tracing: tracing.DefaultConfig(),
	}
}

// DefaultHistoryPath returns the standard history database location, or empty
// when the home directory is unavailable.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "duet", "history.db")
}

// DefaultTracesFilePath returns the standard trace export location.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "duet", "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns a commented starter config.
func DefaultConfigTemplate() string {
	return `# duet configuration

sync:
  # Where in the viewport the sync anchor sits (fraction of height from top).
  anchor_fraction: 0.333
  # Minimum position delta (cells) before the other pane moves.
  update_threshold: 2
  # Scroll events this close to the last programmatic position are echoes.
  echo_tolerance: 3
  # How long a pane stays the scroll primary after user input (ms).
  primary_timeout_ms: 150

search:
  # Per-file match cap; files past it are flagged as truncated.
  match_cap: 1000
  # Matches shown per file before "show more".
  initial_display: 5
  # How many more matches each expansion reveals.
  display_increment: 10

ui:
  show_status_bar: true
  show_scrollbars: true
  show_connectors: true
  file_list_width: 32

theme:
  addition: "#73F59F"
  deletion: "#FF8787"
  change: "#54A0FF"
  highlight: "#F1FA8C"
  subtle: "#6C7086"
  error: "#FF5555"

history:
  enabled: true
  # path: ~/.config/duet/history.db

watch:
  enabled: true

tracing:
  enabled: false
  # exporter: file | stdout | otlp | none
  exporter: file
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Fails if parent directories cannot be created.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	if c.Sync.AnchorFraction < 0 || c.Sync.AnchorFraction > 1 {
		return fmt.Errorf("sync.anchor_fraction must be in [0,1], got %v", c.Sync.AnchorFraction)
	}
	if c.Sync.UpdateThreshold < 0 {
		return fmt.Errorf("sync.update_threshold must be non-negative")
	}
	if c.Sync.EchoTolerance < 0 {
		return fmt.Errorf("sync.echo_tolerance must be non-negative")
	}
	if c.Sync.PrimaryTimeoutMs < 0 {
		return fmt.Errorf("sync.primary_timeout_ms must be non-negative")
	}
	if c.Search.MatchCap < 1 {
		return fmt.Errorf("search.match_cap must be at least 1")
	}
	if c.Search.InitialDisplay < 1 {
		return fmt.Errorf("search.initial_display must be at least 1")
	}
	if c.Search.DisplayIncrement < 1 {
		return fmt.Errorf("search.display_increment must be at least 1")
	}
	return nil
}
