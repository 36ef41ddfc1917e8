package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gofinance/internal/adapter/repository/postgres"
	"github.com/iho/gofinance/internal/infrastructure/idgen"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_APIRequiresOwner(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(apimiddleware.OwnerHeader, "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, rec.Body.String())
}

func TestNewRouter_OwnersAreIsolated(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts",
		strings.NewReader(`{"name":"Main","type":"BANK","currency":"PEN","balance":"10"}`))
	req.Header.Set(apimiddleware.OwnerHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(apimiddleware.OwnerHeader, "user-2")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"items":[],"total":0}`, rec.Body.String())
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(0.0001, 1, nil)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
		req.Header.Set(apimiddleware.OwnerHeader, "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories",
		strings.NewReader(`{"name":"Pets","type":"EXPENSE"}`))
	req.Header.Set(apimiddleware.OwnerHeader, "user-1")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user-1:POST:key-123", store.checked)
	assert.Equal(t, 24*time.Hour, store.ttl)
	assert.True(t, store.updated)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegisterer(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gofinance_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	require.NoError(t, chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}))

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/accounts/",
		"PATCH /api/v1/accounts/{id}",
		"PUT /api/v1/accounts/{id}/balance",
		"GET /api/v1/accounts/{id}/history",
		"GET /api/v1/debts/credit-cards/status",
		"DELETE /api/v1/goals/{id}",
		"PUT /api/v1/transactions/{id}",
		"DELETE /api/v1/categories/{id}",
		"PUT /api/v1/budgets/{year}/{month}/",
		"GET /api/v1/budgets/{year}/{month}/status",
		"GET /api/v1/summary",
	}
	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	accountRepo := memory.NewAccountRepository(store)
	debtRepo := memory.NewDebtRepository(store)
	goalRepo := memory.NewGoalRepository(store)
	txRepo := memory.NewTransactionRepository(store)
	budgetRepo := memory.NewBudgetRepository(store)
	ids := idgen.NewULIDGenerator()
	logger := zerolog.Nop()

	cfg := RouterConfig{
		AccountHandler: handler.NewAccountHandler(usecase.NewAccountUseCase(accountRepo, txRepo, ids, nil, nil, logger)),
		DebtHandler:    handler.NewDebtHandler(usecase.NewDebtUseCase(debtRepo, ids, nil, nil, logger)),
		GoalHandler:    handler.NewGoalHandler(usecase.NewGoalUseCase(goalRepo, ids, nil, nil, logger)),
		TransactionHandler: handler.NewTransactionHandler(usecase.NewTransactionUseCase(
			memory.NewTxManager(store), accountRepo, debtRepo, goalRepo, txRepo, memory.NewOutboxRepository(store),
			ids, postgresRepo.NewRetrier(logger), nil, nil, logger,
		)),
		CategoryHandler: handler.NewCategoryHandler(usecase.NewCategoryUseCase(memory.NewCategoryRepository(store), ids)),
		BudgetHandler:   handler.NewBudgetHandler(usecase.NewBudgetUseCase(budgetRepo, txRepo, ids)),
		ReportHandler:   handler.NewReportHandler(usecase.NewReportUseCase(accountRepo, debtRepo, txRepo, budgetRepo)),
		HealthHandler:   handler.NewHealthHandler(),
		Logger:          logger,
		Gatherer:        prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubIdempotencyStore struct {
	checked string
	ttl     time.Duration
	updated bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checked = key
	s.ttl = ttl
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updated = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
