//go:build linux

package redarrowclient

import (
	"context"
	"net"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/server"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
)

func newTestServer(t *testing.T) (*httptest.Server, string, int) {
	t.Helper()
	cat := catalog.Catalog{
		"echo": &catalog.Command{
			Name:      "echo",
			Exec:      "/bin/echo ${0}",
			Args:      []*regexp.Regexp{regexp.MustCompile(`^\w+$`)},
			TimeLimit: 2 * time.Second,
		},
		"interleave": &catalog.Command{
			Name:      "interleave",
			Exec:      "/bin/sh -c 'echo a; echo b 1>&2'",
			TimeLimit: 2 * time.Second,
		},
	}
	srv := httptest.NewServer(server.NewTestEngine(zap.NewNop(), cat))
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return srv, host, port
}

func TestRunCommandBuffered(t *testing.T) {
	srv, host, port := newTestServer(t)
	defer srv.Close()

	c := New(host, port, Options{})
	res, err := c.RunCommand(context.Background(), "echo", []string{"hi"})
	require.NoError(t, err)
	require.False(t, res.IsError())
	code, ok := res.GetExitCode()
	require.True(t, ok)
	assert.Equal(t, int32(0), code)
}

func TestRunCommandUnknown(t *testing.T) {
	srv, host, port := newTestServer(t)
	defer srv.Close()

	c := New(host, port, Options{})
	res, err := c.RunCommand(context.Background(), "nope", nil)
	require.NoError(t, err)
	require.True(t, res.IsError())
	assert.Contains(t, res.ErrorMessage(), "Unknown Command")
}

func TestRunRealtimeDeliversFramesAndResult(t *testing.T) {
	srv, host, port := newTestServer(t)
	defer srv.Close()

	c := New(host, port, Options{})

	var stdoutLines, stderrLines []string
	sink := func(fd stream.FD, payload []byte) {
		switch fd {
		case stream.FDStdout:
			stdoutLines = append(stdoutLines, string(payload))
		case stream.FDStderr:
			stderrLines = append(stderrLines, string(payload))
		}
	}

	res, err := c.RunRealtime(context.Background(), "interleave", nil, sink)
	require.NoError(t, err)
	require.False(t, res.IsError())
	code, ok := res.GetExitCode()
	require.True(t, ok)
	assert.Equal(t, int32(0), code)
	assert.Contains(t, stdoutLines, "a")
	assert.Contains(t, stderrLines, "b")
}
