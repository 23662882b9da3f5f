package cgroup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyWritesMemoryCPUAndProcs(t *testing.T) {
	dir := t.TempDir()
	memLimit := filepath.Join(dir, "memory.limit_in_bytes")
	memProcs := filepath.Join(dir, "cgroup.procs")
	cpuQuota := filepath.Join(dir, "cpu.cfs_quota_us")

	c := NewWithPaths(nil, memLimit, memProcs, cpuQuota)
	require.NoError(t, c.Apply(4242, 67108864, 20))

	limit, err := os.ReadFile(memLimit)
	require.NoError(t, err)
	require.Equal(t, "67108864", string(limit))

	quota, err := os.ReadFile(cpuQuota)
	require.NoError(t, err)
	require.Equal(t, "200000", string(quota))

	procs, err := os.ReadFile(memProcs)
	require.NoError(t, err)
	require.Equal(t, "4242", string(procs))
}

func TestApplySkipsZeroCaps(t *testing.T) {
	dir := t.TempDir()
	memLimit := filepath.Join(dir, "memory.limit_in_bytes")
	memProcs := filepath.Join(dir, "cgroup.procs")
	cpuQuota := filepath.Join(dir, "cpu.cfs_quota_us")

	c := NewWithPaths(nil, memLimit, memProcs, cpuQuota)
	require.NoError(t, c.Apply(1, 0, 0))

	_, err := os.Stat(memLimit)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(cpuQuota)
	require.True(t, os.IsNotExist(err))

	procs, err := os.ReadFile(memProcs)
	require.NoError(t, err)
	require.Equal(t, "1", string(procs))
}

func TestApplyNeverFailsOnUnwritablePath(t *testing.T) {
	c := NewWithPaths(nil, "/proc/1/root-denied/x", "/proc/1/root-denied/y", "/proc/1/root-denied/z")
	require.NoError(t, c.Apply(1, 100, 50))
}
