// Package fanout implements the parallel driver (§4.7): one command and
// argument vector run against every host in a comma-separated list, each
// via an independent redarrowclient.Client, with results rolled up into a
// single pass/fail verdict.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrowclient"
)

// HostResult pairs one host with the CommandResult it produced, or the
// transport error that prevented one.
type HostResult struct {
	Host string
	Res  *redarrow.CommandResult
	Err  error
}

// Run dispatches command/arguments to every host in hosts concurrently
// (buffered run_command semantics, per host) and returns one HostResult per
// host, in the same order hosts was given.
func Run(ctx context.Context, hosts []string, port int, command string, arguments []string, opts redarrowclient.Options) []HostResult {
	results := make([]HostResult, len(hosts))

	g, ctx := errgroup.WithContext(ctx)
	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			c := redarrowclient.New(host, port, opts)
			res, err := c.RunCommand(ctx, command, arguments)
			results[i] = HostResult{Host: host, Res: res, Err: err}
			return nil
		})
	}
	_ = g.Wait() // per-host errors are carried in HostResult, never aborts siblings

	return results
}

// RollUp reports overall success: true only if every host reached the
// server, returned no error, and exited 0. The returned slice names every
// host whose result was non-zero-exit, errored, or unreachable.
func RollUp(results []HostResult) (ok bool, failing []HostResult) {
	ok = true
	for _, r := range results {
		if r.Err != nil {
			ok = false
			failing = append(failing, r)
			continue
		}
		if r.Res.IsError() {
			ok = false
			failing = append(failing, r)
			continue
		}
		if code, have := r.Res.GetExitCode(); !have || code != 0 {
			ok = false
			failing = append(failing, r)
		}
	}
	return ok, failing
}
