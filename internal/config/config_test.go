package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAPIURL_Precedence(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(APIURLEnv, "")
	assert.Equal(t, DefaultAPIURL, GetAPIURL(cfg))

	cfg.API.BaseURL = "https://finance.example.com/api"
	assert.Equal(t, "https://finance.example.com/api/", GetAPIURL(cfg))

	t.Setenv(APIURLEnv, "http://10.0.0.5:8000/api/")
	assert.Equal(t, "http://10.0.0.5:8000/api/", GetAPIURL(cfg))
}

func TestSaveLoad_RoundTripsThroughXDGDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.False(t, Exists())

	cfg := DefaultConfig()
	cfg.Appearance.Theme = "tokyo-night"
	cfg.TUI.RefreshIntervalSec = 30
	require.NoError(t, Save(cfg))

	assert.True(t, Exists())
	assert.Equal(t, filepath.Join(dir, "finboard", "config.toml"), ConfigPath())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tokyo-night", got.Appearance.Theme)
	assert.Equal(t, 30, got.TUI.RefreshIntervalSec)
	assert.Equal(t, 15, got.API.TimeoutSec)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestCacheDir_HonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "finboard", "finboard.db"), DBPath())
	assert.Equal(t, filepath.Join(dir, "finboard", "finboard.log"), LogPath())
}

func TestValidateAPIURL(t *testing.T) {
	assert.NoError(t, ValidateAPIURL("http://localhost:8000/api/"))
	assert.NoError(t, ValidateAPIURL(" https://fin.example.com/api "))
	assert.Error(t, ValidateAPIURL("localhost:8000"))
	assert.Error(t, ValidateAPIURL("ftp://example.com/"))
	assert.Error(t, ValidateAPIURL(""))
}
