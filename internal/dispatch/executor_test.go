//go:build linux

package dispatch

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
)

func newTestExecutor() *Executor {
	return NewExecutor(zap.NewNop())
}

func TestExecuteSuccess(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "echo",
		Exec:      "/bin/echo ${0}",
		Args:      []*regexp.Regexp{regexp.MustCompile(`^\w+$`)},
		TimeLimit: 2 * time.Second,
	}

	res := newTestExecutor().Execute(cmd, []string{"hello"})
	require.False(t, res.IsError())
	code, ok := res.GetExitCode()
	require.True(t, ok)
	assert.Equal(t, int32(0), code)
}

func TestExecuteNonZeroExit(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "false",
		Exec:      "/bin/sh -c 'exit 3'",
		Args:      nil,
		TimeLimit: 2 * time.Second,
	}

	res := newTestExecutor().Execute(cmd, nil)
	require.False(t, res.IsError())
	code, ok := res.GetExitCode()
	require.True(t, ok)
	assert.Equal(t, int32(3), code)
}

func TestExecuteIllegalArgument(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "echo",
		Exec:      "/bin/echo ${0}",
		Args:      []*regexp.Regexp{regexp.MustCompile(`^\d+$`)},
		TimeLimit: 2 * time.Second,
	}

	res := newTestExecutor().Execute(cmd, []string{"not-a-number"})
	require.True(t, res.IsError())
	assert.Contains(t, res.ErrorMessage(), redarrow.PrefixIllegalArgument)
}

func TestExecuteTimeLimitExceeded(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "sleep",
		Exec:      "/bin/sleep 5",
		Args:      nil,
		TimeLimit: 50 * time.Millisecond,
	}

	start := time.Now()
	res := newTestExecutor().Execute(cmd, nil)
	elapsed := time.Since(start)

	require.True(t, res.IsError())
	assert.Contains(t, res.ErrorMessage(), redarrow.PrefixTimeLimitExceeded)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExecuteIterDeliversFramedLines(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "multi",
		Exec:      "/bin/sh -c 'echo out1; echo err1 1>&2; echo out2'",
		Args:      nil,
		TimeLimit: 2 * time.Second,
	}

	var lines []string
	sink := func(fd stream.FD, line string) bool {
		lines = append(lines, line)
		return true
	}

	res := newTestExecutor().ExecuteIter(cmd, nil, sink)
	require.False(t, res.IsError())
	code, ok := res.GetExitCode()
	require.True(t, ok)
	assert.Equal(t, int32(0), code)
	assert.GreaterOrEqual(t, len(lines), 3)

	dec := stream.NewDecoder()
	var frames []stream.Frame
	for _, l := range lines {
		frames = append(frames, dec.Feed([]byte(l))...)
	}

	var stdoutPayloads []string
	for _, f := range frames {
		if f.FD == stream.FDStdout {
			stdoutPayloads = append(stdoutPayloads, string(f.Payload))
		}
	}
	assert.Contains(t, stdoutPayloads, "out1")
	assert.Contains(t, stdoutPayloads, "out2")
}

func TestExecuteIterSinkDropLogsWarningButDoesNotFail(t *testing.T) {
	cmd := &catalog.Command{
		Name:      "echo",
		Exec:      "/bin/echo ${0}",
		Args:      []*regexp.Regexp{regexp.MustCompile(`^\w+$`)},
		TimeLimit: 2 * time.Second,
	}

	sink := func(fd stream.FD, line string) bool { return false }

	res := newTestExecutor().ExecuteIter(cmd, []string{"hi"}, sink)
	require.False(t, res.IsError())
}
