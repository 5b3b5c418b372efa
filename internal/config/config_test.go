package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfigFile(t, `
app:
  port: 8080
  gin_mode: release
database:
  dsn: "host=localhost user=app dbname=app"
redis:
  addr: "localhost:6379"
  db: 2
jwt:
  secret: "file-secret"
  issuer: "mindmapsvc"
  token_ttl: "30m"
auth:
  max_login_attempts: 5
  lock_window: "2h"
  idle_timeout: "30m"
  pending_2fa_ttl: "10m"
  totp_issuer: "MindMap"
rate_limit:
  register_max: 3
  register_window: "1h"
  login_max: 5
  login_window: "15m"
  api_max: 100
  api_window: "15m"
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "host=localhost user=app dbname=app", cfg.DSN)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 2*time.Hour, cfg.LockWindow)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 10*time.Minute, cfg.PendingTwoFATTL)
	assert.Equal(t, "MindMap", cfg.TOTPIssuer)
	assert.Equal(t, 3, cfg.RegisterMax)
	assert.Equal(t, time.Hour, cfg.RegisterWindow)
}

func TestLoadFrom_Defaults(t *testing.T) {
	// Durations and the attempt ceiling fall back when the file omits them.
	path := writeConfigFile(t, `
app:
  port: 8080
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.LockWindow)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 10*time.Minute, cfg.PendingTwoFATTL)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
app:
  port: 8080
jwt:
  secret: "file-secret"
`)

	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfigFile(t, `
jwt:
  token_ttl: "half an hour"
`)
		_, err := LoadFrom(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token TTL")
	})
}
