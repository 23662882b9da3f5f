package dependency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-initd/initd/internal/registry"
)

func newRunningRegistry(t *testing.T, commands ...string) *registry.Registry {
	t.Helper()
	reg := registry.New(10)
	for _, c := range commands {
		require.NoError(t, reg.Insert(registry.NewRecord(c, 3, nil, 0, 0)))
		require.NoError(t, reg.SetState(c, registry.Starting))
		require.NoError(t, reg.SetRunning(c, 100))
	}
	return reg
}

func TestSatisfiedWhenAllDepsRunning(t *testing.T) {
	reg := newRunningRegistry(t, "a", "b")
	require.True(t, Satisfied(reg, []string{"a", "b"}))
}

func TestUnsatisfiedWhenDepMissing(t *testing.T) {
	reg := registry.New(10)
	require.False(t, Satisfied(reg, []string{"a"}))
	require.Equal(t, []string{"a"}, Unmet(reg, []string{"a"}))
}

func TestUnsatisfiedWhenDepNotRunning(t *testing.T) {
	reg := registry.New(10)
	require.NoError(t, reg.Insert(registry.NewRecord("a", 3, nil, 0, 0)))
	require.False(t, Satisfied(reg, []string{"a"}))
}

func TestNoDependenciesAlwaysSatisfied(t *testing.T) {
	reg := registry.New(10)
	require.True(t, Satisfied(reg, nil))
}
