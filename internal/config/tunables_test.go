package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadTunablesMissingFileReturnsDefaults(t *testing.T) {
	got, err := LoadTunables(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), got)
}

func TestLoadTunablesOverlayOverridesSubset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 5\nhealth_check_interval: 30s\n"), 0o644))

	got, err := LoadTunables(path)
	require.NoError(t, err)
	require.Equal(t, 5, got.MaxRetries)
	require.Equal(t, 30*time.Second, got.HealthCheckInterval)
	require.Equal(t, Defaults().GracePeriod, got.GracePeriod)
}
