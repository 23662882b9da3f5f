//go:build unix

package process

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReapAllCollectsExitedChild(t *testing.T) {
	cmd := exec.Command("/bin/true")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	var exits []Exit
	require.Eventually(t, func() bool {
		exits = ReapAll()
		return len(exits) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, pid, exits[0].PID)
	require.Equal(t, 0, exits[0].ExitCode)
}

func TestReapAllReturnsEmptyWhenNothingExited(t *testing.T) {
	exits := ReapAll()
	require.Empty(t, exits)
}
