// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeremyhahn/go-custody/pkg/logging"
)

// DefaultSweepInterval is how often the sweeper scans for expired
// transactions when no interval is configured.
const DefaultSweepInterval = time.Minute

// SweeperConfig configures the background expiry sweeper.
type SweeperConfig struct {
	Workflow *Workflow

	// Interval between sweeps. Defaults to DefaultSweepInterval.
	Interval time.Duration

	Logger *logging.Logger
}

// Sweeper periodically expires pending transactions past their TTL so
// stale proposals cannot linger as attack surface. The sweep itself is a
// convergence mechanism only; submissions observe expiry lazily even when
// the sweeper is behind.
type Sweeper struct {
	workflow *Workflow
	interval time.Duration
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper for the given workflow.
func NewSweeper(config *SweeperConfig) (*Sweeper, error) {
	if config == nil || config.Workflow == nil {
		return nil, fmt.Errorf("workflow: sweeper requires a workflow")
	}
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Sweeper{
		workflow: config.Workflow,
		interval: interval,
		logger:   logger,
	}, nil
}

// Start launches the sweep loop. Starting a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
	s.logger.Info("expiry sweeper started", "interval", s.interval)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.workflow.SweepExpired(ctx); err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}
