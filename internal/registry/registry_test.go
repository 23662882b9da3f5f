package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertRejectsDuplicate(t *testing.T) {
	reg := New(10)
	rec := NewRecord("/bin/a", 3, nil, 0, 0)
	require.NoError(t, reg.Insert(rec))
	require.ErrorIs(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)), ErrDuplicate)
}

func TestInsertRejectsOverCapacity(t *testing.T) {
	reg := New(1)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))
	err := reg.Insert(NewRecord("/bin/b", 3, nil, 0, 0))
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestLifecycleHappyPath(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))

	require.NoError(t, reg.SetState("/bin/a", Starting))
	require.NoError(t, reg.SetRunning("/bin/a", 1234))

	command, ok := reg.ByPID(1234)
	require.True(t, ok)
	require.Equal(t, "/bin/a", command)

	gotCommand, err := reg.SetExited(1234, 0)
	require.NoError(t, err)
	require.Equal(t, "/bin/a", gotCommand)

	_, ok = reg.ByPID(1234)
	require.False(t, ok, "pid must be retired once exited")

	rec, _ := reg.Lookup("/bin/a")
	require.Equal(t, Exited, rec.State)
}

func TestIllegalTransitionRejected(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))
	err := reg.SetState("/bin/a", Running)
	require.ErrorIs(t, err, ErrInternal)
}

func TestDrainMarksLiveRecordsStopping(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))
	require.NoError(t, reg.SetState("/bin/a", Starting))
	require.NoError(t, reg.SetRunning("/bin/a", 99))

	live := reg.Drain()
	require.Len(t, live, 1)
	require.Equal(t, LiveRecord{Command: "/bin/a", PID: 99}, live[0])

	rec, _ := reg.Lookup("/bin/a")
	require.Equal(t, Stopping, rec.State)
}

func TestLookupReturnsDefensiveCopy(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, []string{"x"}, 0, 0)))

	rec, _ := reg.Lookup("/bin/a")
	rec.Dependencies[0] = "mutated"
	rec.State = Running

	fresh, _ := reg.Lookup("/bin/a")
	require.Equal(t, "x", fresh.Dependencies[0])
	require.Equal(t, Stopped, fresh.State)
}

func TestRunlevelTransitionSerializesAndResets(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))

	require.True(t, reg.BeginRunlevelTransition())
	require.False(t, reg.BeginRunlevelTransition(), "only one transition at a time")

	reg.EndRunlevelTransition(5)
	require.Equal(t, 5, reg.CurrentRunlevel())
	require.Equal(t, 0, reg.Len())
	require.True(t, reg.BeginRunlevelTransition())
}

func TestDemoteAndRestoreRestartPolicy(t *testing.T) {
	reg := New(10)
	require.NoError(t, reg.Insert(NewRecord("/bin/a", 3, nil, 0, 0)))

	require.NoError(t, reg.DemoteRestartPolicy("/bin/a"))
	rec, _ := reg.Lookup("/bin/a")
	require.Equal(t, RestartNever, rec.RestartPolicy)
	require.Equal(t, RestartAlways, rec.Declared)

	reg.RestoreDeclaredPolicy("/bin/a")
	rec, _ = reg.Lookup("/bin/a")
	require.Equal(t, RestartAlways, rec.RestartPolicy)
}
