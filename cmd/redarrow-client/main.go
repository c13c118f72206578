// Command redarrow-client issues one command against a single host (C6) or
// fans it out across a comma-separated host list (C7).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/redarrow/redarrow/internal/fanout"
	"github.com/redarrow/redarrow/pkg/hostutil"
	"github.com/redarrow/redarrow/pkg/redarrow"
	"github.com/redarrow/redarrow/pkg/redarrow/stream"
	"github.com/redarrow/redarrow/pkg/redarrowclient"
)

const defaultPort = 4205

func newRootCommand() *cobra.Command {
	var (
		hostList       string
		port           int
		realtime       bool
		userAgent      string
		connectTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "redarrow-client <command> [argument ...]",
		Short:         "Run a redarrow command against one or more hosts",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := hostutil.SplitHostList(hostList)
			if err != nil {
				return err
			}

			command := args[0]
			arguments := args[1:]
			opts := redarrowclient.Options{UserAgent: userAgent, ConnectTimeout: connectTimeout}

			var code int
			if len(hosts) == 1 {
				code = runSingleHost(cmd, hosts[0], port, command, arguments, realtime, opts)
			} else {
				code = runMultiHost(cmd, hosts, port, command, arguments, opts)
			}
			os.Exit(code)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&hostList, "host", "", "comma-separated target host(s) (required)")
	flags.IntVar(&port, "port", defaultPort, "redarrow server port")
	flags.BoolVar(&realtime, "realtime", false, "stream stdout/stderr as they arrive (single host only)")
	flags.StringVar(&userAgent, "user-agent", redarrowclient.DefaultUserAgent, "HTTP User-Agent header")
	flags.DurationVar(&connectTimeout, "connect-timeout", redarrowclient.DefaultConnectTimeout, "TCP connect timeout")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func runSingleHost(cmd *cobra.Command, host string, port int, command string, arguments []string, realtime bool, opts redarrowclient.Options) int {
	c := redarrowclient.New(host, port, opts)
	out := cmd.OutOrStdout()

	var res *redarrow.CommandResult
	var err error

	if realtime {
		sink := func(fd stream.FD, payload []byte) {
			if fd == stream.FDStderr {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", payload)
				return
			}
			fmt.Fprintf(out, "%s\n", payload)
		}
		res, err = c.RunRealtime(context.Background(), command, arguments, sink)
	} else {
		res, err = c.RunCommand(context.Background(), command, arguments)
		if err == nil && !res.IsError() {
			if s := res.Stdout; s != nil {
				fmt.Fprint(out, *s)
			}
			if s := res.Stderr; s != nil {
				fmt.Fprint(cmd.ErrOrStderr(), *s)
			}
		}
	}

	return exitFromResult(res, err)
}

func runMultiHost(cmd *cobra.Command, hosts []string, port int, command string, arguments []string, opts redarrowclient.Options) int {
	results := fanout.Run(context.Background(), hosts, port, command, arguments, opts)
	ok, failing := fanout.RollUp(results)

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%s: %s\n", r.Host, summarize(r))
	}
	if !ok {
		var names []string
		for _, f := range failing {
			names = append(names, f.Host)
		}
		fmt.Fprintf(out, "failing hosts: %s\n", strings.Join(names, ", "))
		return 1
	}
	return 0
}

func summarize(r fanout.HostResult) string {
	if r.Err != nil {
		return fmt.Sprintf("transport error: %s", r.Err)
	}
	if r.Res.IsError() {
		return fmt.Sprintf("error: %s", r.Res.ErrorMessage())
	}
	code, _ := r.Res.GetExitCode()
	return fmt.Sprintf("exit_code=%d", code)
}

// exitFromResult implements the single-host CLI exit code rule: passthrough
// of the server's exit_code, or 3 on any transport/server error.
func exitFromResult(res *redarrow.CommandResult, err error) int {
	if err != nil || res.IsError() {
		return 3
	}
	if code, have := res.GetExitCode(); have {
		return int(code)
	}
	return 3
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redarrow-client:", err)
		os.Exit(1)
	}
}
