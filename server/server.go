// Package server exposes a running chain over HTTP.
//
// # Endpoints
//
//   - GET /health - Health check with version and uptime
//   - GET /metrics - Prometheus metrics, when a metrics handler is configured
//   - GET /api/status - Current run (with live step statuses) and next scheduled run
//   - GET /config - Current configuration as YAML
//   - POST /run - Triggers a chain run in the background
//   - GET /history - Completed runs, most recent first
//   - GET /history/run?id=ID - One completed run, including step logs
//
// # Example
//
//	srv, err := server.New(r, logger, server.WithListenAddr(":9090"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nomis52/eventchain/buildinfo"
	"github.com/nomis52/eventchain/config"
	"github.com/nomis52/eventchain/runner"
	"github.com/nomis52/eventchain/scheduler"
	"github.com/nomis52/eventchain/server/handlers"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultListenAddr      = ":8080"
)

// Server is the HTTP server for chainrun.
type Server struct {
	addr       string
	logger     *slog.Logger
	httpServer *http.Server
	runner     *runner.Runner
	schedule   *scheduler.Manager
	config     *config.Config
	metrics    http.Handler
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr configures the address the server listens on.
// Default is ":8080".
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		if addr == "" {
			return errors.New("listen address cannot be empty")
		}
		s.addr = addr
		return nil
	}
}

// WithScheduler reports the next run of schedule in /api/status.
// The server does not start the scheduler.
func WithScheduler(schedule *scheduler.Manager) Option {
	return func(s *Server) error {
		s.schedule = schedule
		return nil
	}
}

// WithConfig serves cfg on /config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metrics = h
		return nil
	}
}

// New creates a new Server for r.
func New(r *runner.Runner, logger *slog.Logger, opts ...Option) (*Server, error) {
	if r == nil {
		return nil, errors.New("runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:   defaultListenAddr,
		logger: logger.With("component", "server"),
		runner: r,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Config returns the configuration served on /config.
func (s *Server) Config() *config.Config {
	return s.config
}

// NextRun returns the next scheduled run time, or nil if no schedule is
// configured or none of its triggers has a future run.
func (s *Server) NextRun() *time.Time {
	if s.schedule == nil {
		return nil
	}
	next := s.schedule.NextRun()
	if next.IsZero() {
		return nil
	}
	return &next
}

// Status returns the current run status by delegating to the runner.
func (s *Server) Status() runner.RunSummary {
	return s.runner.Status()
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", handlers.NewHealthHandler(buildinfo.Get().Version))
	mux.Handle("GET /api/status", handlers.NewAPIStatusHandler(s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("POST /run", handlers.NewRunHandler(s.runner))
	mux.Handle("GET /history", handlers.NewHistoryHandler(s.runner))
	mux.Handle("GET /history/run", handlers.NewRunDetailHandler(s.runner))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}
