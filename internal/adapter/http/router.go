package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/handler"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional fields may be nil.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	DebtHandler        *handler.DebtHandler
	GoalHandler        *handler.GoalHandler
	TransactionHandler *handler.TransactionHandler
	CategoryHandler    *handler.CategoryHandler
	BudgetHandler      *handler.BudgetHandler
	ReportHandler      *handler.ReportHandler
	HealthHandler      *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Owner)
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, ttl, cfg.Logger).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Patch("/{id}", cfg.AccountHandler.Update)
			r.Delete("/{id}", cfg.AccountHandler.Delete)
			r.Put("/{id}/balance", cfg.AccountHandler.SetBalance)
			r.Get("/{id}/history", cfg.AccountHandler.History)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Post("/", cfg.DebtHandler.Create)
			r.Get("/", cfg.DebtHandler.List)
			r.Get("/credit-cards/status", cfg.DebtHandler.CreditCardStatus)
			r.Get("/{id}", cfg.DebtHandler.Get)
			r.Patch("/{id}", cfg.DebtHandler.Update)
			r.Delete("/{id}", cfg.DebtHandler.Delete)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", cfg.GoalHandler.Create)
			r.Get("/", cfg.GoalHandler.List)
			r.Get("/{id}", cfg.GoalHandler.Get)
			r.Patch("/{id}", cfg.GoalHandler.Update)
			r.Delete("/{id}", cfg.GoalHandler.Delete)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Put("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", cfg.CategoryHandler.Create)
			r.Get("/", cfg.CategoryHandler.List)
			r.Delete("/{id}", cfg.CategoryHandler.Delete)
		})

		r.Route("/budgets/{year}/{month}", func(r chi.Router) {
			r.Get("/", cfg.BudgetHandler.Get)
			r.Put("/", cfg.BudgetHandler.Set)
			r.Get("/status", cfg.BudgetHandler.Status)
		})

		r.Get("/summary", cfg.ReportHandler.Summary)
	})

	return r
}
