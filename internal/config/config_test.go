package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SLIDEDECK_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "presentation-slides", cfg.Storage.Key)
	assert.False(t, cfg.TLS.Enabled)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "slidedeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
storage:
  driver: file
  path: /var/lib/slidedeck
log:
  level: debug
  development: true
`), 0o644))

	t.Setenv("SLIDEDECK_CONFIG", path)
	t.Setenv("SLIDEDECK_STORAGE_KEY", "deck-1")
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/slidedeck", cfg.Storage.Path)
	assert.Equal(t, "deck-1", cfg.Storage.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("SLIDEDECK_CONFIG", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SLIDEDECK_STORAGE_DRIVER=memory\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SLIDEDECK_STORAGE_DRIVER") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "redis"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Driver = DriverS3
	cfg.Storage.Path = ""
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.TLS.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SLIDEDECK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}
