package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "localboard", cfg.Storage.Slot)
	assert.Equal(t, 400.0, cfg.Image.MaxWidth)
	assert.Equal(t, 300.0, cfg.Image.MaxHeight)
	assert.Equal(t, 8888, cfg.Share.Port)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("LOCALBOARD_STORAGE_BACKEND", "")
	t.Setenv("LOCALBOARD_STORAGE_PATH", "")
	t.Setenv("LOCALBOARD_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoad(t *testing.T) {
	t.Setenv("LOCALBOARD_STORAGE_BACKEND", "")
	t.Setenv("LOCALBOARD_STORAGE_PATH", "")
	t.Setenv("LOCALBOARD_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.Path = "/tmp/boards.db"
	cfg.History.Limit = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", loaded.Storage.Backend)
	assert.Equal(t, "/tmp/boards.db", loaded.Storage.Path)
	assert.Equal(t, 7, loaded.History.Limit)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("LOCALBOARD_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\ncanvas:\n  width: 640\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 640, cfg.Canvas.Width)
	assert.Equal(t, 800, cfg.Canvas.Height)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOCALBOARD_STORAGE_BACKEND", "sqlite")
	t.Setenv("LOCALBOARD_STORAGE_PATH", "/data/board.db")
	t.Setenv("LOCALBOARD_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/data/board.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"backend": func(c *Config) { c.Storage.Backend = "s3" },
		"path":    func(c *Config) { c.Storage.Path = "" },
		"canvas":  func(c *Config) { c.Canvas.Width = 0 },
		"quality": func(c *Config) { c.Canvas.JPEGQuality = 101 },
		"history": func(c *Config) { c.History.Limit = -1 },
		"port":    func(c *Config) { c.Share.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
