// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.KEK = "0123456789abcdef"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "shamir", cfg.Engine.Type)
	assert.Equal(t, 24*time.Hour, cfg.Workflow.DefaultTTL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9000
logging:
  level: debug
  format: json
storage:
  backend: file
  path: /var/lib/custody
engine:
  type: shamir
  kek: test-kek-0123456789
workflow:
  default_ttl: 1h
  sweep_interval: 30s
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Debug())
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, time.Hour, cfg.Workflow.DefaultTTL)
	assert.Equal(t, 30*time.Second, cfg.Workflow.SweepInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUSTODY_PORT", "7000")
	t.Setenv("CUSTODY_LOG_LEVEL", "debug")
	t.Setenv("CUSTODY_KEK", "env-kek-0123456789")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Debug())
	assert.Equal(t, "env-kek-0123456789", cfg.Engine.KEK)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file storage without path", func(c *Config) { c.Storage.Backend = "file" }},
		{"short kek", func(c *Config) { c.Engine.KEK = "short" }},
		{"unknown engine", func(c *Config) { c.Engine.Type = "frost" }},
		{"zero ttl", func(c *Config) { c.Workflow.DefaultTTL = 0 }},
		{"rate limit enabled without rate", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.RequestsPerMinute = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Engine.KEK = "0123456789abcdef"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
