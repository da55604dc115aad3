package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/pt")
	t.Setenv("ENV", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("NOTIFY_RATE_PER_SEC", "")
	t.Setenv("AUDIT_INTERVAL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, 25.0, cfg.NotifyRatePerSec)
	assert.Equal(t, 24*time.Hour, cfg.AuditInterval)
	assert.False(t, cfg.QueueEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/pt")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NOTIFY_RATE_PER_SEC", "10")
	t.Setenv("AUDIT_INTERVAL", "1h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.QueueEnabled())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10.0, cfg.NotifyRatePerSec)
	assert.Equal(t, time.Hour, cfg.AuditInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestFromEnvValidation(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/pt")
	t.Setenv("AUDIT_INTERVAL", "soon")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "AUDIT_INTERVAL")

	t.Setenv("AUDIT_INTERVAL", "")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "timezone")
}
