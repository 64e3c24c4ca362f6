// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package rest exposes the custody API over HTTP: party registration,
// wallet lifecycle, the transaction signing workflow, and audit export.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/custody"
	"github.com/jeremyhahn/go-custody/pkg/health"
	"github.com/jeremyhahn/go-custody/pkg/logging"
	"github.com/jeremyhahn/go-custody/pkg/metrics"
	"github.com/jeremyhahn/go-custody/pkg/ratelimit"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/workflow"
)

// Config holds the REST server configuration.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// Version is the API version string.
	Version string

	Registry *registry.Registry
	Custody  *custody.Manager
	Workflow *workflow.Workflow
	Audit    audit.Logger

	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string

	// Health provides Kubernetes probe endpoints. A checker with no
	// registered checks is used when nil.
	Health *health.Checker

	// RateLimit enforces per-client request limits when non-nil.
	RateLimit *ratelimit.Limiter

	// Logger is the logging adapter. Defaults to the package default.
	Logger *logging.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server represents the REST API server.
type Server struct {
	server    *http.Server
	handlers  *HandlerContext
	addr      string
	logger    *logging.Logger
	rateLimit *ratelimit.Limiter
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Registry == nil || cfg.Custody == nil || cfg.Workflow == nil || cfg.Audit == nil {
		return nil, fmt.Errorf("registry, custody manager, workflow and audit logger are required")
	}

	if cfg.Port == 0 {
		cfg.Port = 8443
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if cfg.Health == nil {
		cfg.Health = health.NewChecker()
	}

	server := &Server{
		handlers:  NewHandlerContext(cfg),
		addr:      fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		logger:    logger,
		rateLimit: cfg.RateLimit,
	}

	server.server = &http.Server{
		Addr:         server.addr,
		Handler:      server.setupRouter(cfg.MetricsPath),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter(metricsPath string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", s.handlers.HealthHandler)
	r.Head("/health", s.handlers.HealthHandler)
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)
	r.Get("/health/startup", s.handlers.StartupHandler)
	if metricsPath != "" {
		r.Handle(metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimit != nil {
			r.Use(s.rateLimit.Middleware)
		}
		// Party endpoints
		r.Post("/parties", s.handlers.RegisterPartyHandler)
		r.Get("/parties", s.handlers.ListPartiesHandler)
		r.Get("/parties/{id}", s.handlers.GetPartyHandler)
		r.Delete("/parties/{id}", s.handlers.RevokePartyHandler)

		// Wallet endpoints
		r.Post("/wallets", s.handlers.CreateWalletHandler)
		r.Get("/wallets", s.handlers.ListWalletsHandler)
		r.Get("/wallets/{id}", s.handlers.GetWalletHandler)
		r.Post("/wallets/{id}/revoke", s.handlers.RevokeWalletHandler)
		r.Get("/wallets/{id}/audit", s.handlers.ExportAuditHandler)
		r.Get("/wallets/{id}/transactions", s.handlers.ListTransactionsHandler)

		// Transaction endpoints
		r.Post("/transactions", s.handlers.ProposeTransactionHandler)
		r.Get("/transactions/{id}", s.handlers.GetTransactionHandler)
		r.Post("/transactions/{id}/signatures", s.handlers.SubmitSignatureHandler)
		r.Post("/transactions/{id}/execute", s.handlers.ExecuteTransactionHandler)
		r.Post("/transactions/{id}/reject", s.handlers.RejectTransactionHandler)
	})

	return r
}

// Handler returns the configured router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the REST API server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
