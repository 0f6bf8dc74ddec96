// Package config loads the LocalBoard YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all LocalBoard configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Image   ImageConfig   `yaml:"image"`
	History HistoryConfig `yaml:"history"`
	Share   ShareConfig   `yaml:"share"`
	Logging LoggingConfig `yaml:"logging"`

	// Watch reloads the board when the storage file changes on disk.
	// Only the file backend supports it.
	Watch bool `yaml:"watch"`
}

// StorageConfig selects where boards are saved.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, sqlite
	Path    string `yaml:"path"`    // directory for file, database file for sqlite
	Slot    string `yaml:"slot"`
}

// CanvasConfig sizes the rendering surface used by the app and raster exports.
type CanvasConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Background  string  `yaml:"background"`
	GridSize    float64 `yaml:"grid_size"` // 0 disables the grid
	JPEGQuality int     `yaml:"jpeg_quality"`
	StrokeColor string  `yaml:"stroke_color"`
	StrokeWidth float64 `yaml:"stroke_width"`
	FontSize    float64 `yaml:"font_size"`
}

// ImageConfig places uploaded images.
type ImageConfig struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	MaxWidth       float64 `yaml:"max_width"`
	MaxHeight      float64 `yaml:"max_height"`
	FallbackWidth  float64 `yaml:"fallback_width"`
	FallbackHeight float64 `yaml:"fallback_height"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	Limit int `yaml:"limit"` // 0 = unbounded
}

// ShareConfig builds the share link and its mDNS announcement.
type ShareConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"` // empty = outgoing IP
	Port   int    `yaml:"port"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Path:    filepath.Join(defaultDataDir(), "boards"),
			Slot:    "localboard",
		},
		Canvas: CanvasConfig{
			Width:       1280,
			Height:      800,
			Background:  "#ffffff",
			GridSize:    50,
			JPEGQuality: 90,
			StrokeColor: "#1e1e1e",
			StrokeWidth: 2,
			FontSize:    20,
		},
		Image: ImageConfig{
			X: 100, Y: 100,
			MaxWidth: 400, MaxHeight: 300,
			FallbackWidth: 200, FallbackHeight: 150,
		},
		History: HistoryConfig{Limit: 100},
		Share: ShareConfig{
			Scheme: "localboard",
			Port:   8888,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "localboard.yaml"
	}
	return filepath.Join(dir, "localboard", "config.yaml")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".localboard"
	}
	return filepath.Join(dir, "localboard")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOCALBOARD_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LOCALBOARD_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("LOCALBOARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects settings the app cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be file or sqlite, got %q", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.JPEGQuality < 1 || c.Canvas.JPEGQuality > 100 {
		return fmt.Errorf("canvas.jpeg_quality must be in [1,100], got %d", c.Canvas.JPEGQuality)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	if c.Share.Port <= 0 || c.Share.Port > 65535 {
		return fmt.Errorf("share.port out of range: %d", c.Share.Port)
	}
	return nil
}
