// Package server wires the HTTP dispatcher (§4.5) on top of a loaded
// catalog and executor: a single GET /command/:name route plus /metrics,
// built on gin the way the teacher's cmd/zmux-server/main.go is built.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/redarrow/redarrow/internal/catalog"
	"github.com/redarrow/redarrow/internal/dispatch"
)

// Options configures the HTTP listener. Zero values take the defaults
// below.
type Options struct {
	Addr            string
	MaxConcurrent   int
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = "0.0.0.0:4205"
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 256
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 30 * time.Second
	}
	return o
}

// Server owns the gin engine, the stdlib http.Server wrapping it, and the
// catalog/executor pair every request dispatches against.
type Server struct {
	log  *zap.Logger
	opts Options
	http *http.Server
}

// New builds a Server ready to Run. cat is shared with the handler as is,
// without copying; it is never mutated afterward (reload is out of scope).
func New(log *zap.Logger, cat catalog.Catalog, opts Options) *Server {
	opts = opts.withDefaults()
	log = log.Named("server")

	r := newEngine(log, cat, opts.MaxConcurrent)

	httpSrv := &http.Server{
		Addr:    opts.Addr,
		Handler: r,

		ReadTimeout: opts.ReadTimeout,
		IdleTimeout: opts.IdleTimeout,
		// WriteTimeout is intentionally left unset: a chunked response's
		// lifetime is bounded by the command's own time_limit (§4.3), not by
		// a fixed wall clock, so a blanket deadline here would cut off
		// slow-but-legitimate streaming commands.
		MaxHeaderBytes: 1 << 15,

		ErrorLog: zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	return &Server{log: log, opts: opts, http: httpSrv}
}

// NewTestEngine exposes the gin.Engine construction for httptest-based
// integration tests in other packages (e.g. the redarrowclient and fanout
// test suites), without binding a real listener.
func NewTestEngine(log *zap.Logger, cat catalog.Catalog) *gin.Engine {
	return newEngine(log, cat, 256)
}

// newEngine assembles the gin.Engine shared by Server and by tests that
// need to exercise routing without binding a real listener.
func newEngine(log *zap.Logger, cat catalog.Catalog, maxConcurrent int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(ZapLogger(log))
	r.Use(CapConcurrentRequests(maxConcurrent))

	h := &commandHandler{cat: cat, exe: dispatch.NewExecutor(log)}
	r.GET("/command/:name", h.handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run blocks, serving HTTP until ctx is canceled (typically by SIGHUP or
// SIGTERM, see cmd/redarrow-server), then drains in-flight requests for up
// to ShutdownTimeout before returning.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.opts.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err

	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
