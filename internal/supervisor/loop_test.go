package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-initd/initd/internal/config"
	"github.com/go-initd/initd/internal/process"
	"github.com/go-initd/initd/internal/registry"
)

func writeInittab(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "inittab")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// longRunningScript writes a tiny shell script that blocks until
// killed. Used as a stand-in for a service binary, since the Spawner
// execs with no arguments and /bin/sleep needs one.
func longRunningScript(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "long-runner.sh")
	script := "#!/bin/sh\ntrap 'exit 0' TERM\nwhile true; do sleep 1; done\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestLoop(t *testing.T, configPath string, maxProcesses int) *Loop {
	t.Helper()
	reg := registry.New(maxProcesses)
	spawner := process.New(nil, nil, nil)
	tunables := config.Defaults()
	tunables.MaxRetries = 1
	tunables.RetryBackoff = 5 * time.Millisecond
	tunables.GracePeriod = 2 * time.Second
	return New(reg, spawner, nil, nil, tunables, configPath)
}

func TestHappyBootAndRestart(t *testing.T) {
	path := writeInittab(t, "3 /bin/true - 0 0")
	loop := newTestLoop(t, path, 10)

	require.NoError(t, loop.Boot(context.Background(), 3))

	rec, ok := loop.reg.Lookup("/bin/true")
	require.True(t, ok)
	require.Equal(t, registry.Running, rec.State)
	firstPID := rec.PID

	require.Eventually(t, func() bool {
		exits := process.ReapAll()
		for _, e := range exits {
			if e.PID == firstPID {
				loop.handleChildExit(Event{Kind: EventChildExit, PID: e.PID, ExitCode: e.ExitCode})
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	rec, _ = loop.reg.Lookup("/bin/true")
	require.Equal(t, registry.Exited, rec.State)

	loop.handleHealthTick(context.Background())
	rec, _ = loop.reg.Lookup("/bin/true")
	require.Equal(t, registry.Running, rec.State)
	require.NotEqual(t, firstPID, rec.PID)
}

func TestDependencyGateNeverForks(t *testing.T) {
	path := writeInittab(t,
		"3 /nonexistent/a - 0 0",
		"3 /bin/true /nonexistent/a 0 0",
	)
	loop := newTestLoop(t, path, 10)
	require.NoError(t, loop.Boot(context.Background(), 3))

	recA, ok := loop.reg.Lookup("/nonexistent/a")
	require.True(t, ok)
	require.Equal(t, registry.Failed, recA.State)

	recB, ok := loop.reg.Lookup("/bin/true")
	require.True(t, ok)
	require.Equal(t, registry.Failed, recB.State)
}

func TestCapacityBoundRejectsOverflow(t *testing.T) {
	lines := make([]string, 0, 11)
	dir := t.TempDir()
	for i := 0; i < 11; i++ {
		bin := filepath.Join(dir, fmt.Sprintf("svc%d", i))
		require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755))
		lines = append(lines, fmt.Sprintf("3 %s - 0 0", bin))
	}
	path := writeInittab(t, lines...)
	loop := newTestLoop(t, path, 10)

	require.NoError(t, loop.seedRunlevel(3))
	require.Equal(t, 10, loop.reg.Len())
}

func TestReloadDiffStopsRemovedAndAddsNew(t *testing.T) {
	a := longRunningScript(t)
	b := longRunningScript(t)
	c := longRunningScript(t)

	path := writeInittab(t,
		fmt.Sprintf("3 %s - 0 0", a),
		fmt.Sprintf("3 %s - 0 0", b),
	)
	loop := newTestLoop(t, path, 10)
	require.NoError(t, loop.Boot(context.Background(), 3))

	recA, _ := loop.reg.Lookup(a)
	originalAPID := recA.PID

	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("3 %s - 0 0\n3 %s - 0 0\n", a, c)), 0o644))
	loop.handleReload(context.Background())

	_, stillThere := loop.reg.Lookup(b)
	require.False(t, stillThere, "b should be removed by reload")

	recAAfter, ok := loop.reg.Lookup(a)
	require.True(t, ok)
	require.Equal(t, originalAPID, recAAfter.PID, "a's pid must be untouched")

	require.Eventually(t, func() bool {
		recC, ok := loop.reg.Lookup(c)
		return ok && recC.State == registry.Running
	}, 2*time.Second, 20*time.Millisecond)
}

func TestManageStopDemotesRestartPolicy(t *testing.T) {
	svc := longRunningScript(t)
	path := writeInittab(t, fmt.Sprintf("3 %s - 0 0", svc))
	loop := newTestLoop(t, path, 10)
	require.NoError(t, loop.Boot(context.Background(), 3))

	err := loop.handleManageStop(svc)
	require.NoError(t, err)

	rec, ok := loop.reg.Lookup(svc)
	require.True(t, ok)
	require.Equal(t, registry.RestartNever, rec.RestartPolicy)
	require.Equal(t, registry.RestartAlways, rec.Declared)
}

func TestManageStatusReportsRunningAndNotFound(t *testing.T) {
	path := writeInittab(t, "3 /bin/true - 0 0")
	loop := newTestLoop(t, path, 10)
	require.NoError(t, loop.Boot(context.Background(), 3))

	status, err := loop.handleManageStatus("/bin/true")
	require.NoError(t, err)
	require.Equal(t, "running", status)

	_, err = loop.handleManageStatus("/no/such/service")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRunlevelSwitchValidatesBounds(t *testing.T) {
	path := writeInittab(t, "3 /bin/true - 0 0")
	loop := newTestLoop(t, path, 10)
	require.NoError(t, loop.Boot(context.Background(), 3))

	err := loop.handleRunlevelSwitch(context.Background(), 99)
	require.Error(t, err)
	require.Equal(t, 3, loop.reg.CurrentRunlevel())
}
