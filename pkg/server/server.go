package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/proxy/middleware"
	"mercator-hq/guardian/pkg/telemetry/tracing"
)

// Task is a background component that runs until ctx is canceled. A
// non-nil error stops the whole server.
type Task func(ctx context.Context) error

// Routes are the handlers mounted on the server. Nil handlers are skipped.
type Routes struct {
	Chat        http.Handler
	Health      http.Handler
	Metrics     http.Handler
	MetricsPath string
}

// Server serves the proxy endpoints and runs background tasks (policy
// watcher, audit rotation) in one errgroup. When any member fails or the
// context ends, everything is shut down.
type Server struct {
	config config.ProxyConfig
	routes Routes
	logger *slog.Logger

	mu       sync.Mutex
	tasks    map[string]Task
	order    []string
	listener net.Listener
	running  bool
}

// New creates a server. Call AddTask before Run.
func New(cfg config.ProxyConfig, routes Routes) *Server {
	if routes.MetricsPath == "" {
		routes.MetricsPath = config.DefaultMetricsPath
	}
	return &Server{
		config: cfg,
		routes: routes,
		logger: slog.Default().With("component", "server"),
		tasks:  make(map[string]Task),
	}
}

// AddTask registers a background task by name.
func (s *Server) AddTask(name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.tasks[name]; !dup {
		s.order = append(s.order, name)
	}
	s.tasks[name] = task
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.routes.Chat != nil {
		mux.Handle("/v1/chat/completions", s.routes.Chat)
	}
	if s.routes.Health != nil {
		mux.Handle("/health", s.routes.Health)
	}
	if s.routes.Metrics != nil {
		mux.Handle(s.routes.MetricsPath, s.routes.Metrics)
	}

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.RecoveryMiddleware,
		tracing.HTTPMiddleware,
		middleware.LoggingMiddleware,
		middleware.MaxBodyMiddleware(s.config.MaxBodyBytes),
	)
}

// Addr returns the bound listen address once Run has started listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run listens on the configured address and blocks until ctx is canceled
// or a member of the group fails. In-flight requests get ShutdownTimeout to
// finish.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.running = true
	s.listener = ln
	tasks := make([]Task, 0, len(s.order))
	names := append([]string(nil), s.order...)
	for _, name := range names {
		tasks = append(tasks, s.tasks[name])
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting proxy server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		s.logger.Info("proxy server stopped")
		return nil
	})

	for i, task := range tasks {
		name := names[i]
		g.Go(func() error {
			if err := task(gctx); err != nil {
				s.logger.Error("background task failed", "task", name, "error", err)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}
