// Command redarrow-server runs the redarrow HTTP dispatcher (C5) against a
// catalog loaded from an INI file or directory (C1).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/server"
)

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return zap.Must(cfg.Build())
}

func newRootCommand() *cobra.Command {
	var (
		catalogPath     string
		addr            string
		maxConcurrent   int
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "redarrow-server",
		Short:         "Serve the redarrow command-execution HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()
			log = log.Named("main")

			if catalogPath == "" {
				return fmt.Errorf("--catalog is required")
			}

			cat, err := catalog.Load(log, catalogPath)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			log.Info("catalog loaded", zap.Int("commands", len(cat)))

			srv := server.New(log, cat, server.Options{
				Addr:            addr,
				MaxConcurrent:   maxConcurrent,
				ShutdownTimeout: shutdownTimeout,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			return srv.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&catalogPath, "catalog", "", "path to a catalog INI file or directory")
	flags.StringVar(&addr, "addr", "0.0.0.0:4205", "HTTP listen address")
	flags.IntVar(&maxConcurrent, "max-concurrent", 256, "maximum concurrent in-flight requests")
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "grace period for draining in-flight requests on shutdown")

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redarrow-server:", err)
		os.Exit(1)
	}
}
