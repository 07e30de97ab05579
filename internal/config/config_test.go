package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"POSEKIT_STORAGE_DATA_DIR",
		"POSEKIT_STORAGE_ASSET_DIR",
		"POSEKIT_MATCHING_THRESHOLD",
		"POSEKIT_LOGGING_FILE",
		"POSEKIT_LOGGING_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Storage, cfg.Storage)
	assert.InDelta(t, 0.1, cfg.Matching.Threshold, 1e-9)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  data_dir: /srv/posekit
  asset_dir: /srv/posekit/img
matching:
  threshold: 0.15
logging:
  level: debug
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/posekit", cfg.Storage.DataDir)
	assert.Equal(t, "/srv/posekit/img", cfg.Storage.AssetDir)
	assert.InDelta(t, 0.15, cfg.Matching.Threshold, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("POSEKIT_STORAGE_DATA_DIR", "/env/data")
	t.Setenv("POSEKIT_MATCHING_THRESHOLD", "0.2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.Storage.DataDir)
	assert.InDelta(t, 0.2, cfg.Matching.Threshold, 1e-9)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_InvalidThreshold(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("POSEKIT_MATCHING_THRESHOLD", "-1")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching.threshold")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/data"
	cfg.Storage.AssetDir = "/data/images"
	cfg.Logging.Level = "WARN"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage, loaded.Storage)
	assert.Equal(t, "WARN", loaded.Logging.Level)
}
