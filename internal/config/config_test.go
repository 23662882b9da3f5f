package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWellFormedLines(t *testing.T) {
	input := `
# comment
3 /usr/sbin/syslogd - 0 0
3 /usr/sbin/sshd syslogd 67108864 20

3 /usr/sbin/cron syslogd,sshd 0 5
`
	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Skipped)
	require.Len(t, result.Declarations, 3)

	require.Equal(t, "/usr/sbin/syslogd", result.Declarations[0].Command)
	require.Nil(t, result.Declarations[0].Dependencies)

	require.Equal(t, []string{"syslogd"}, result.Declarations[1].Dependencies)
	require.Equal(t, int64(67108864), result.Declarations[1].MemoryLimitBytes)
	require.Equal(t, 20, result.Declarations[1].CPUQuotaPercent)

	require.Equal(t, []string{"syslogd", "sshd"}, result.Declarations[2].Dependencies)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := `
3 relative/path - 0 0
not-a-number /usr/sbin/x - 0 0
3 /usr/sbin/x - 0 200
3 /usr/sbin/x - 0
`
	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Declarations)
	require.Len(t, result.Skipped, 4)
}

func TestParseIgnoresBlankAndCommentLines(t *testing.T) {
	input := "\n# nothing here\n   \n"
	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Declarations)
	require.Empty(t, result.Skipped)
}
