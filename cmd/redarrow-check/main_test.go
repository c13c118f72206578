//go:build linux

package main

import (
	"bytes"
	"net"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/server"
	"github.com/redarrow/redarrow/pkg/redarrowclient"
)

func startCheckServer(t *testing.T, exec string) (host string, port int, closeFn func()) {
	t.Helper()
	cat := catalog.Catalog{
		"reading": &catalog.Command{
			Name:      "reading",
			Exec:      exec,
			TimeLimit: 2 * time.Second,
		},
	}
	srv := httptest.NewServer(server.NewTestEngine(zap.NewNop(), cat))
	h, p, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, portNum, srv.Close
}

func fakeCmd() *cobra.Command {
	c := &cobra.Command{}
	c.SetOut(&bytes.Buffer{})
	return c
}

func TestRunOKWithinThresholds(t *testing.T) {
	host, port, closeFn := startCheckServer(t, "/bin/echo 15")
	defer closeFn()

	code := run(fakeCmd(), host, port, "reading", nil, "10:20", "", false, redarrowclient.DefaultUserAgent, redarrowclient.DefaultConnectTimeout)
	assert.Equal(t, exitOK, code)
}

func TestRunWarning(t *testing.T) {
	host, port, closeFn := startCheckServer(t, "/bin/echo 25")
	defer closeFn()

	code := run(fakeCmd(), host, port, "reading", nil, "10:20", "", false, redarrowclient.DefaultUserAgent, redarrowclient.DefaultConnectTimeout)
	assert.Equal(t, exitWarning, code)
}

func TestRunCritical(t *testing.T) {
	host, port, closeFn := startCheckServer(t, "/bin/echo 100")
	defer closeFn()

	code := run(fakeCmd(), host, port, "reading", nil, "10:20", "50:60", false, redarrowclient.DefaultUserAgent, redarrowclient.DefaultConnectTimeout)
	assert.Equal(t, exitCritical, code)
}

func TestRunUnparseableStdout(t *testing.T) {
	host, port, closeFn := startCheckServer(t, "/bin/echo not-a-number")
	defer closeFn()

	code := run(fakeCmd(), host, port, "reading", nil, "", "", false, redarrowclient.DefaultUserAgent, redarrowclient.DefaultConnectTimeout)
	assert.Equal(t, exitUnknown, code)
}

func TestRunQuietSuppressesTransportError(t *testing.T) {
	code := run(fakeCmd(), "127.0.0.1", 1, "reading", nil, "", "", true, redarrowclient.DefaultUserAgent, 50*time.Millisecond)
	assert.Equal(t, exitOK, code)
}
