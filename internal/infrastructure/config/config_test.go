package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFiles()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, config.CacheLocal, cfg.Cache)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "gofinance.events", cfg.EventChannel)
	assert.Equal(t, uint64(3), cfg.RetryMaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryInitialInterval)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("CACHE", "redis")
	t.Setenv("STORE", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")

	cfg, err := config.LoadFiles()
	require.NoError(t, err)

	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.OutboxBatchSize)
	assert.True(t, cfg.UsesRedis())
}

func TestLoadRejectsInvalidBackends(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE": "sqlite"}},
		{"unknown cache", map[string]string{"CACHE": "memcached"}},
		{"redis cache without url", map[string]string{"CACHE": "redis"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
		{"retry interval above max", map[string]string{"RETRY_INITIAL_INTERVAL": "2s", "RETRY_MAX_INTERVAL": "1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadFiles()
			assert.Error(t, err)
		})
	}
}

func TestLoadFilesReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nEVENT_CHANNEL=from-file\n"), 0o600))
	t.Setenv("EVENT_CHANNEL", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("LOG_LEVEL") })

	cfg, err := config.LoadFiles(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.EventChannel)
}
