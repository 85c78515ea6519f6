package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "fuellog_backup", cfg.Backup.FilenamePrefix)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Stats.RecentLimit)
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: json\nstats:\n  recent_limit: 3\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Stats.RecentLimit)
	assert.Equal(t, DefaultConfig().Database.Path, cfg.Database.Path)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_LogLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDefaultConfigPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/srv/fuellog/config.yaml")
	assert.Equal(t, "/srv/fuellog/config.yaml", DefaultConfigPath())
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "car.db")
	cfg.Backup.Dir = filepath.Join(dir, "exports")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	require.NoError(t, loaded.EnsureDirectories())
	assert.DirExists(t, cfg.Backup.Dir)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	// missing .env is fine
	require.NoError(t, LoadEnv(configPath))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FUELLOG_TEST_KEY=from-file\nFUELLOG_TEST_KEPT=from-file\n"), 0600))
	t.Setenv("FUELLOG_TEST_KEY", "")
	os.Unsetenv("FUELLOG_TEST_KEY")
	t.Setenv("FUELLOG_TEST_KEPT", "from-env")

	require.NoError(t, LoadEnv(configPath))
	assert.Equal(t, "from-file", os.Getenv("FUELLOG_TEST_KEY"))
	assert.Equal(t, "from-env", os.Getenv("FUELLOG_TEST_KEPT"))
}
