package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldgate/fieldgate/internal/domain/auth"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/fieldgate/fieldgate/internal/service"
)

// Server is the inbound adapter that exposes the validation service
// over HTTP.
type Server struct {
	svc            *service.ValidationService
	registry       *validation.Registry
	server         *http.Server
	addr           string
	allowedOrigins []string
	keyring        *auth.Keyring
	version        string
	logger         *slog.Logger
	metrics        *Metrics
}

// Option is a functional option for configuring Server.
type Option func(*Server)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:8089" (localhost only).
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithAllowedOrigins sets the allowed origins for DNS rebinding protection.
// If empty, all requests with an Origin header are blocked (local-only mode).
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithKeyring enables API key authentication with the given keyring.
func WithKeyring(keyring *auth.Keyring) Option {
	return func(s *Server) {
		s.keyring = keyring
	}
}

// WithVersion sets the version string reported by /healthz.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithLogger sets the logger for the HTTP server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an HTTP server wrapping the given validation service.
func NewServer(svc *service.ValidationService, registry *validation.Registry, opts ...Option) *Server {
	s := &Server{
		svc:            svc,
		registry:       registry,
		addr:           "127.0.0.1:8089",
		allowedOrigins: []string{},
		version:        "dev",
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler builds the full handler chain. Exposed for tests.
func (s *Server) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/v1/validate", validateHandler(s.svc, s.metrics))
	mux.Handle("/v1/validate/batch", batchHandler(s.svc, s.metrics))
	mux.Handle("/v1/rejections", rejectionsHandler(s.svc))
	mux.Handle("/healthz", healthHandler(s.version, s.registry))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))

	// Middleware order (outermost first): metrics captures the full
	// duration, then request ID, then origin check, then auth.
	var handler http.Handler = mux
	handler = APIKeyMiddleware(s.keyring)(handler)
	handler = OriginAllowlist(s.allowedOrigins)(handler)
	handler = RequestIDMiddleware(s.logger)(handler)
	handler = MetricsMiddleware(s.metrics)(handler)
	return handler
}

// Start begins accepting HTTP connections. It blocks until the context
// is cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.shutdown()
}
