// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-custody/pkg/storage/memory"
)

func TestLive(t *testing.T) {
	checker := NewChecker()
	result := checker.Live(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "liveness", result.Name)
}

func TestStartup(t *testing.T) {
	checker := NewChecker()

	result := checker.Startup(context.Background())
	require.Equal(t, StatusUnhealthy, result.Status)

	checker.MarkStarted()
	result = checker.Startup(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)

	checker.MarkNotStarted()
	result = checker.Startup(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestReadyNoChecks(t *testing.T) {
	checker := NewChecker()
	results := checker.Ready(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusHealthy, results[0].Status)
	assert.Equal(t, "default", results[0].Name)
}

func TestReadyRunsRegisteredChecks(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("storage", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	checker.RegisterCheck("engine", func(ctx context.Context) CheckResult {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  errors.New("engine offline").Error(),
		}
	})

	results := checker.Ready(context.Background())
	require.Len(t, results, 2)

	byName := make(map[string]CheckResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StatusHealthy, byName["storage"].Status)
	assert.Equal(t, StatusUnhealthy, byName["engine"].Status)
	assert.False(t, checker.IsHealthy(context.Background()))
}

func TestUnregisterCheck(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("storage", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	})
	require.False(t, checker.IsHealthy(context.Background()))

	checker.UnregisterCheck("storage")
	assert.True(t, checker.IsHealthy(context.Background()))
}

func TestRegisterNilCheckIgnored(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("noop", nil)
	results := checker.Ready(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, "default", results[0].Name)
}

func TestStorageCheck(t *testing.T) {
	backend := memory.New()
	check := StorageCheck(backend)

	result := check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, "storage", result.Name)

	require.NoError(t, backend.Close())
	result = check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.NotEmpty(t, result.Error)
}
