// Package redarrowclient implements the redarrow web client (§4.6): issuing
// buffered or chunked GET /command/{name} requests and reassembling the
// result, either as a single CommandResult or as a live stream of
// stdout/stderr lines plus a terminal CommandResult.
package redarrowclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
)

// DefaultUserAgent is sent unless Options.UserAgent overrides it.
const DefaultUserAgent = "Redarrow-webclient/1"

// DefaultConnectTimeout bounds how long dialing a new connection may take.
const DefaultConnectTimeout = 3 * time.Second

// Sink receives one streamed frame (stdout or stderr) during RunRealtime.
type Sink func(fd stream.FD, payload []byte)

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	UserAgent      string
	ConnectTimeout time.Duration
}

// Client issues requests against one redarrow server. It holds no
// connection state beyond host/port identity and is safe for concurrent
// use.
type Client struct {
	host string
	port int
	http *http.Client
	opts Options
}

// New builds a Client targeting host:port.
func New(host string, port int, opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	transport := &http.Transport{
		DialContext: dialer.DialContext,
	}

	return &Client{
		host: host,
		port: port,
		http: &http.Client{Transport: transport},
		opts: opts,
	}
}

func (c *Client) buildURL(name string, arguments []string, chunked bool) string {
	q := url.Values{}
	if len(arguments) > 0 {
		q.Set("argument", strings.Join(arguments, " "))
	}
	if chunked {
		q.Set("chunked", "1")
	} else {
		q.Set("chunked", "0")
	}
	q.Set("format", "json")

	return fmt.Sprintf("http://%s/command/%s?%s", net.JoinHostPort(c.host, strconv.Itoa(c.port)), url.PathEscape(name), q.Encode())
}

func (c *Client) newRequest(ctx context.Context, name string, arguments []string, chunked bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(name, arguments, chunked), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	return req, nil
}

// RunCommand issues the buffered (chunked=0) request and deserializes the
// JSON envelope.
func (c *Client) RunCommand(ctx context.Context, name string, arguments []string) (*redarrow.CommandResult, error) {
	req, err := c.newRequest(ctx, name, arguments, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return redarrow.Unmarshal(body)
}

// RunRealtime issues the chunked (chunked=1) request, forwarding every
// stdout/stderr frame to sink as it arrives, and returns the terminal
// fd=0 JSON envelope. If the body ends without ever delivering an fd=0
// frame, it returns an error CommandResult ("Command Unfinished").
func (c *Client) RunRealtime(ctx context.Context, name string, arguments []string, sink Sink) (*redarrow.CommandResult, error) {
	req, err := c.newRequest(ctx, name, arguments, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dec := stream.NewDecoder()
	buf := make([]byte, 32*1024)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range dec.Feed(buf[:n]) {
				if f.FD == stream.FDResult {
					return redarrow.Unmarshal(f.Payload)
				}
				if sink != nil {
					sink(f.FD, f.Payload)
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, readErr
		}
	}

	return redarrow.Err("Command Unfinished"), nil
}
