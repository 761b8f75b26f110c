package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vulnmanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.False(t, cfg.TracingEnabled)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
grpc_port: 7000
environment: staging
cors_origins:
  - https://app.example.com
rate_limit_per_minute: 30
`)

	t.Setenv("VULNMANAGER_GRPC_PORT", "7100")
	t.Setenv("VULNMANAGER_DEBUG", "true")

	cfg, err := Load([]string{"-config", path, "-addr", ":7070"})
	require.NoError(t, err)

	// Flag beats file
	assert.Equal(t, ":7070", cfg.Addr)
	// Env beats file
	assert.Equal(t, 7100, cfg.GRPCPort)
	assert.True(t, cfg.Debug)
	// File beats defaults
	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "tracing_enabled: true\n")
	t.Setenv("VULNMANAGER_CONFIG", path)
	t.Setenv("VULNMANAGER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("VULNMANAGER_RATE_LIMIT_ENABLED", "true")

	cfg, err := Load([]string{"-rate-limit=false", "-cors-origins", "http://only.test"})
	require.NoError(t, err)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, []string{"http://only.test"}, cfg.CORSOrigins)
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.TrustedProxies)

	t.Setenv("VULNMANAGER_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.50")
	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.50"}, cfg.TrustedProxies)

	cfg, err = Load([]string{"-trusted-proxies", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"::1"}, cfg.TrustedProxies)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown flag", func(t *testing.T) {
		_, err := Load([]string{"-nope"})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")})
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load([]string{"-config", writeConfig(t, "grpc_port: [1, 2")})
		assert.Error(t, err)
	})

	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("VULNMANAGER_GRPC_PORT", "ninety")
		_, err := Load(nil)
		assert.ErrorContains(t, err, "VULNMANAGER_GRPC_PORT")
	})

	t.Run("bad environment", func(t *testing.T) {
		_, err := Load([]string{"-env", "qa"})
		assert.ErrorContains(t, err, "invalid environment")
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		_, err := Load([]string{"-trusted-proxies", "10.0.0.0/8,proxy.local"})
		assert.ErrorContains(t, err, "invalid trusted proxy")
	})

	t.Run("zero rate", func(t *testing.T) {
		_, err := Load([]string{"-rate-limit-per-minute", "0"})
		assert.Error(t, err)
	})
}

func TestConfigHelpers(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "INFO", cfg.LogLevel().String())

	cfg.Environment = EnvProduction
	cfg.Debug = true
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "DEBUG", cfg.LogLevel().String())
}
