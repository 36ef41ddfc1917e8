package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/infrastructure/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:                config.StoreMemory,
		Cache:                config.CacheLocal,
		CacheTTL:             time.Minute,
		HTTPPort:             "0",
		HTTPShutdownTimeout:  time.Second,
		IdempotencyTTL:       time.Hour,
		RateLimitRPS:         100,
		RateLimitBurst:       100,
		RetryMaxAttempts:     3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     10 * time.Millisecond,
		OutboxInterval:       10 * time.Millisecond,
		OutboxBatchSize:      10,
		EventChannel:         "test.events",
	}
}

func TestNewApp_MemoryStoreServesAPI(t *testing.T) {
	app, err := newApp(context.Background(), memoryConfig(), zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer app.close()

	h := app.server.Handler

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts",
		strings.NewReader(`{"name":"Cash","type":"CASH","currency":"PEN","balance":"20"}`))
	req.Header.Set(middleware.OwnerHeader, "user-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "gofinance_records_created_total")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := newApp(context.Background(), memoryConfig(), zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer app.close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestNewApp_PostgresUnavailable(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store = config.StorePostgres
	cfg.MigrateOnStart = false
	cfg.DatabaseURL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	cfg.DatabaseTimeout = time.Second

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	assert.Error(t, err)
}
