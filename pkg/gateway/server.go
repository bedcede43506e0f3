// Package gateway provides the HTTP server fronting the chat service:
// session resolution, admission control, the inference call, and the
// usage and history read endpoints.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"nexa-hq/neurongate/pkg/config"
	"nexa-hq/neurongate/pkg/gateway/handlers"
	"nexa-hq/neurongate/pkg/gateway/middleware"
	"nexa-hq/neurongate/pkg/history"
	"nexa-hq/neurongate/pkg/inference"
	"nexa-hq/neurongate/pkg/kvstore"
	"nexa-hq/neurongate/pkg/quota"
	"nexa-hq/neurongate/pkg/session"
	"nexa-hq/neurongate/pkg/telemetry/metrics"
)

// Deps carries the assembled components the server routes to.
type Deps struct {
	// Store is the key-value backend, probed by the readiness endpoint.
	Store kvstore.Store

	// Sessions manages session records.
	Sessions *session.Manager

	// Engine runs admission evaluations.
	Engine *quota.Engine

	// Generator performs inference calls.
	Generator inference.Generator

	// History persists transcripts. Nil disables the history endpoint.
	History *history.Store

	// Collector records gateway metrics.
	Collector *metrics.Collector

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// Server is the gateway HTTP server.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the gateway server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// a shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", "address", s.cfg.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, letting in-flight requests drain
// within the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("gateway stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the fully assembled HTTP handler, for tests and for
// embedding the gateway behind another listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	var upstream handlers.HealthChecker
	if hc, ok := s.deps.Generator.(handlers.HealthChecker); ok {
		upstream = hc
	}

	chatHandler := handlers.NewChatHandler(
		s.deps.Sessions, s.deps.Engine, s.deps.Generator, s.deps.Collector,
		handlers.ChatHandlerConfig{
			DefaultModel: s.cfg.Inference.DefaultModel,
			MaxTokens:    s.cfg.Inference.MaxTokens,
			History:      s.deps.History,
			Logger:       s.logger,
		})

	mux.Handle("/v1/chat", chatHandler)
	mux.Handle("/v1/usage", handlers.NewUsageHandler(s.deps.Sessions, s.deps.Engine, nil, s.logger))
	if s.deps.History != nil {
		mux.Handle("/v1/history", handlers.NewHistoryHandler(s.deps.History, s.logger))
	}
	mux.Handle("/healthz", handlers.NewHealthHandler())
	mux.Handle("/readyz", handlers.NewReadyHandler(s.deps.Store, upstream, s.logger))
	metricsEnabled := s.cfg.Telemetry.Metrics.Enabled == nil || *s.cfg.Telemetry.Metrics.Enabled
	if metricsEnabled && s.deps.Collector != nil {
		mux.Handle("/metrics", s.deps.Collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(s.cfg.Server.CORS)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
