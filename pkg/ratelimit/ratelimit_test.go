// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterDisabled(t *testing.T) {
	l := New(&Config{Enabled: false, RequestsPerMinute: 1})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("client-1"))
	}
}

func TestLimiterAllowsBurst(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 5})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("client-1"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("client-1"))
}

func TestLimiterPerClientIsolation(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	require.True(t, l.Allow("client-1"))
	require.False(t, l.Allow("client-1"))

	// A different client has its own bucket.
	assert.True(t, l.Allow("client-2"))
}

func TestLimiterRefill(t *testing.T) {
	// 600 req/min refills a token every 100ms.
	l := New(&Config{Enabled: true, RequestsPerMinute: 600, Burst: 1})
	defer l.Stop()

	require.True(t, l.Allow("client-1"))
	require.False(t, l.Allow("client-1"))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow("client-1"))
}

func TestLimiterCleanup(t *testing.T) {
	l := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		CleanupInterval:   time.Hour,
		MaxIdle:           time.Hour,
	})
	defer l.Stop()

	l.Allow("client-1")
	l.Allow("client-2")

	l.mu.Lock()
	l.lastSeen["client-1"] = time.Now().Add(-2 * time.Hour)
	l.mu.Unlock()

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.limiters, "client-1")
	assert.Contains(t, l.limiters, "client-2")
}

func TestMiddleware(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	defer l.Stop()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())

	code := do()
	require.Equal(t, http.StatusTooManyRequests, code)
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:41000"
	assert.Equal(t, "192.168.1.10", clientKey(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", clientKey(req))
}
