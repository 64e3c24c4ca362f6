// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-custody/internal/config"
	"github.com/jeremyhahn/go-custody/internal/rest"
	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/custody"
	"github.com/jeremyhahn/go-custody/pkg/health"
	"github.com/jeremyhahn/go-custody/pkg/logging"
	"github.com/jeremyhahn/go-custody/pkg/ratelimit"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/sharestore"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/storage/file"
	"github.com/jeremyhahn/go-custody/pkg/storage/memory"
	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/tss/mocks"
	"github.com/jeremyhahn/go-custody/pkg/tss/shamir"
	"github.com/jeremyhahn/go-custody/pkg/workflow"
)

// serveCmd runs the custody REST server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the custody server",
	Long: `Start the custody REST server: party registry, wallet lifecycle,
the transaction signing workflow, audit export, and the background
expiry sweeper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(viper.GetString("config"))
	},
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.Error("closing storage backend", "error", cerr)
		}
	}()

	reg, err := registry.New(backend)
	if err != nil {
		return err
	}
	shares, err := sharestore.New(backend)
	if err != nil {
		return err
	}
	auditLog, err := audit.NewLog(backend)
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, shares)
	if err != nil {
		return err
	}

	manager, err := custody.NewManager(&custody.Config{
		Backend:  backend,
		Registry: reg,
		Shares:   shares,
		Engine:   engine,
		Audit:    auditLog,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	wf, err := workflow.New(&workflow.Config{
		Backend: backend,
		Wallets: manager,
		Shares:  shares,
		Engine:  engine,
		Audit:   auditLog,
		TTL:     cfg.Workflow.DefaultTTL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	manager.SetPendingChecker(wf)

	sweeper, err := workflow.NewSweeper(&workflow.SweeperConfig{
		Workflow: wf,
		Interval: cfg.Workflow.SweepInterval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	checker := health.NewChecker()
	checker.RegisterCheck("storage", health.StorageCheck(backend))

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(&ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
		defer limiter.Stop()
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	server, err := rest.NewServer(&rest.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      Version,
		Registry:     reg,
		Custody:      manager,
		Workflow:     wf,
		Audit:        auditLog,
		MetricsPath:  metricsPath,
		Health:       checker,
		RateLimit:    limiter,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Start(ctx)
	defer sweeper.Stop()
	checker.MarkStarted()

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func newLogger(cfg *config.Config) *logging.Logger {
	if cfg.Logging.Format == "json" {
		return logging.NewJSONLogger(cfg.Debug())
	}
	return logging.NewLogger(cfg.Debug())
}

func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func newEngine(cfg *config.Config, shares tss.ShareSource) (tss.Engine, error) {
	switch cfg.Engine.Type {
	case "shamir":
		return shamir.NewEngine(&shamir.Config{
			KEK:    []byte(cfg.Engine.KEK),
			Shares: shares,
		})
	case "mock":
		return mocks.NewEngine(), nil
	default:
		return nil, fmt.Errorf("unknown engine type: %s", cfg.Engine.Type)
	}
}
