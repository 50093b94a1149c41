package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.TrackBehaviors)
	assert.True(t, cfg.TrackScroll)
	assert.True(t, cfg.TrackClicks)
	assert.Equal(t, []string{"/admin", "/settings"}, cfg.ExcludedPaths)

	cfg.ExcludedPaths[0] = "/changed"
	assert.Equal(t, "/admin", DefaultExcludedPaths[0])
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("track_clicks: false\nexcluded_paths:\n  - /internal\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.TrackBehaviors)
	assert.True(t, cfg.TrackScroll)
	assert.False(t, cfg.TrackClicks)
	assert.Equal(t, []string{"/internal"}, cfg.ExcludedPaths)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("track_clicks: [nope"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
