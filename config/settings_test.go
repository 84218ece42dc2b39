package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	defaults := Defaults()

	assert.Equal(t, "http://127.0.0.1:8080", defaults.ComfyUI.URL)
	assert.Equal(t, "artwork/generated", defaults.ComfyUI.OutputDir)
	assert.Equal(t, 200, defaults.Sync.BatchSize)
	assert.Equal(t, 20, defaults.Sync.QualityFetchWorkers)
	assert.False(t, defaults.Sync.AutoSyncEnabled)
	assert.Equal(t, 360, defaults.Sync.AutoSyncIntervalMin)
	assert.Equal(t, "logs/boxsetter.log", defaults.Log.File)
	assert.Equal(t, 10, defaults.Log.MaxSizeMB)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 200, settings.Sync.BatchSize)
	assert.Empty(t, settings.Emby.ServerURL)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxsetter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
emby:
  server_url: http://emby.local:8096
  api_key: file-key
sync:
  batch_size: 50
  auto_sync_enabled: true
`), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://emby.local:8096", settings.Emby.ServerURL)
	assert.Equal(t, "file-key", settings.Emby.APIKey)
	assert.Equal(t, 50, settings.Sync.BatchSize)
	assert.True(t, settings.Sync.AutoSyncEnabled)
	// untouched keys keep their defaults
	assert.Equal(t, 20, settings.Sync.QualityFetchWorkers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxsetter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
emby:
  server_url: http://from-file:8096
`), 0o644))

	t.Setenv("EMBY_SERVER_URL", "http://from-env:8096")
	t.Setenv("EMBY_SERVER_API", "env-key")
	t.Setenv("TMDB_READ_ACCESS_TOKEN", "env-token")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8096", settings.Emby.ServerURL)
	assert.Equal(t, "env-key", settings.Emby.APIKey)
	assert.Equal(t, "env-token", settings.TMDB.ReadAccessToken)
}

func TestLoadIgnoresUnknownEnv(t *testing.T) {
	t.Setenv("EMBY_SERVER_URL_EXTRA", "should-not-load")

	settings, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, settings.Emby.ServerURL)
}

func TestValidate(t *testing.T) {
	s := &Settings{}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBY_SERVER_URL")

	s.Emby.ServerURL = "http://emby:8096"
	err = s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBY_SERVER_API")

	s.Emby.APIKey = "k"
	assert.NoError(t, s.Validate())
}
