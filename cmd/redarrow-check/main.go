// Command redarrow-check is the Nagios-style monitoring wrapper: it runs a
// redarrow command on one host, parses its stdout as a numeric value, and
// maps that value through warning/critical threshold ranges (C8) to a
// Nagios exit code.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/redarrow/redarrow/pkg/redarrowclient"
	"github.com/redarrow/redarrow/pkg/threshold"
)

const defaultPort = 4205

const (
	exitOK = iota
	exitWarning
	exitCritical
	exitUnknown
)

func newRootCommand() *cobra.Command {
	var (
		host           string
		port           int
		warningExpr    string
		criticalExpr   string
		quiet          bool
		userAgent      string
		connectTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "redarrow-check <command> [argument ...]",
		Short:         "Evaluate a redarrow command's stdout against Nagios threshold ranges",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(run(cmd, host, port, args[0], args[1:], warningExpr, criticalExpr, quiet, userAgent, connectTimeout))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "", "target host (required)")
	flags.IntVar(&port, "port", defaultPort, "redarrow server port")
	flags.StringVar(&warningExpr, "warning", "", "Nagios-style warning range")
	flags.StringVar(&criticalExpr, "critical", "", "Nagios-style critical range")
	flags.BoolVar(&quiet, "quiet", false, "suppress transport errors and exit 0 instead of 3")
	flags.StringVar(&userAgent, "user-agent", redarrowclient.DefaultUserAgent, "HTTP User-Agent header")
	flags.DurationVar(&connectTimeout, "connect-timeout", redarrowclient.DefaultConnectTimeout, "TCP connect timeout")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func run(cmd *cobra.Command, host string, port int, command string, arguments []string, warningExpr, criticalExpr string, quiet bool, userAgent string, connectTimeout time.Duration) int {
	out := cmd.OutOrStdout()
	c := redarrowclient.New(host, port, redarrowclient.Options{UserAgent: userAgent, ConnectTimeout: connectTimeout})

	res, err := c.RunCommand(context.Background(), command, arguments)
	if err != nil {
		if quiet {
			return exitOK
		}
		fmt.Fprintf(out, "UNKNOWN: transport error: %s\n", err)
		return exitUnknown
	}
	if res.IsError() {
		if quiet {
			return exitOK
		}
		fmt.Fprintf(out, "UNKNOWN: %s\n", res.ErrorMessage())
		return exitUnknown
	}

	stdout := ""
	if res.Stdout != nil {
		stdout = *res.Stdout
	}
	value, perr := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if perr != nil {
		fmt.Fprintf(out, "UNKNOWN: could not parse stdout %q as a number\n", stdout)
		return exitUnknown
	}

	if criticalExpr != "" {
		r, err := threshold.Parse(criticalExpr)
		if err != nil {
			fmt.Fprintf(out, "UNKNOWN: invalid --critical range: %s\n", err)
			return exitUnknown
		}
		if r.Alert(value) {
			fmt.Fprintf(out, "CRITICAL: value %g outside %s\n", value, r.String())
			return exitCritical
		}
	}

	if warningExpr != "" {
		r, err := threshold.Parse(warningExpr)
		if err != nil {
			fmt.Fprintf(out, "UNKNOWN: invalid --warning range: %s\n", err)
			return exitUnknown
		}
		if r.Alert(value) {
			fmt.Fprintf(out, "WARNING: value %g outside %s\n", value, r.String())
			return exitWarning
		}
	}

	fmt.Fprintf(out, "OK: value %g\n", value)
	return exitOK
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redarrow-check:", err)
		os.Exit(1)
	}
}
