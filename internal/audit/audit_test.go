package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitWritesLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.log")

	log, err := Open(path, 0)
	require.NoError(t, err)
	defer log.Close()

	log.Emit(LevelInfo, "service started")

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "[INFO]")
	require.Contains(t, string(contents), "service started")
	require.True(t, strings.HasSuffix(string(contents), "\n"))
}

func TestRotationAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.log")

	log, err := Open(path, 1024)
	require.NoError(t, err)
	defer log.Close()

	for i := 0; i < 80; i++ {
		log.Emit(LevelInfo, strings.Repeat("x", 50))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var rotated int
	var active int64
	for _, e := range entries {
		if e.Name() == "init.log" {
			info, statErr := e.Info()
			require.NoError(t, statErr)
			active = info.Size()
			continue
		}
		if strings.HasPrefix(e.Name(), "init.log.") {
			rotated++
		}
	}

	require.GreaterOrEqual(t, rotated, 4)
	require.Less(t, active, int64(1024+128))
}

func TestDegradedFlagOnUnwritableDir(t *testing.T) {
	ResetDegraded()
	_, err := Open("/nonexistent-root-only-dir/sub/init.log", 1024)
	require.Error(t, err)
	require.True(t, Degraded())
	ResetDegraded()
}

func TestReopenPreservesSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.log")

	log1, err := Open(path, 0)
	require.NoError(t, err)
	log1.Emit(LevelInfo, "first")
	require.NoError(t, log1.Close())

	log2, err := Open(path, 0)
	require.NoError(t, err)
	defer log2.Close()
	require.Greater(t, log2.Size(), int64(0))
}
