package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gofinance/internal/adapter/http"
	"github.com/iho/gofinance/internal/adapter/http/handler"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/adapter/repository/local"
	"github.com/iho/gofinance/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gofinance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gofinance/internal/adapter/repository/redis"
	"github.com/iho/gofinance/internal/infrastructure/config"
	"github.com/iho/gofinance/internal/infrastructure/eventpublisher"
	"github.com/iho/gofinance/internal/infrastructure/idgen"
	"github.com/iho/gofinance/internal/infrastructure/logger"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/infrastructure/postgres"
	"github.com/iho/gofinance/internal/infrastructure/redis"
	"github.com/iho/gofinance/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApp(ctx, cfg, appLogger, reg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start")
	}
	defer app.close()

	if err := app.run(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server failed")
		return
	}
	appLogger.Info().Msg("server stopped")
}

// repositories groups one storage backend's implementations.
type repositories struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	debts        usecase.DebtRepository
	goals        usecase.GoalRepository
	transactions usecase.TransactionRepository
	categories   usecase.CategoryRepository
	budgets      usecase.BudgetRepository
	outbox       usecase.OutboxRepository
}

type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	server      *http.Server
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	health := handler.NewHealthHandler()

	repos, err := a.openStore(ctx, health)
	if err != nil {
		a.close()
		return nil, err
	}

	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, cfg.DatabaseTimeout)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		health.With("redis", redis.Ping(redisClient, cfg.DatabaseTimeout))
		logger.Info().Msg("connected to redis")
	}

	var cache usecase.Cache
	switch cfg.Cache {
	case config.CacheRedis:
		cache = redisRepo.NewCache(redisClient)
	case config.CacheLocal:
		cache = local.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	m := metrics.NewWithRegisterer(reg)
	ids := idgen.NewULIDGenerator()
	records := usecase.NewRecordCache(cache, cfg.CacheTTL, logger, m)

	accountUC := usecase.NewAccountUseCase(repos.accounts, repos.transactions, ids, records, m, logger)
	debtUC := usecase.NewDebtUseCase(repos.debts, ids, records, m, logger)
	goalUC := usecase.NewGoalUseCase(repos.goals, ids, records, m, logger)
	retrier := postgresRepo.NewRetrierWithPolicy(postgresRepo.RetryPolicy{
		MaxRetries:      cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		MaxElapsedTime:  cfg.HTTPWriteTimeout,
	}, logger)
	transactionUC := usecase.NewTransactionUseCase(
		repos.txManager, repos.accounts, repos.debts, repos.goals, repos.transactions, repos.outbox,
		ids, retrier, records, m, logger,
	)
	categoryUC := usecase.NewCategoryUseCase(repos.categories, ids)
	budgetUC := usecase.NewBudgetUseCase(repos.budgets, repos.transactions, ids)
	reportUC := usecase.NewReportUseCase(repos.accounts, repos.debts, repos.transactions, repos.budgets)

	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	var idempotency usecase.IdempotencyStore
	if redisClient != nil {
		publisher = redisRepo.NewPublisher(redisClient, cfg.EventChannel)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
	}
	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: repos.outbox,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		DebtHandler:        handler.NewDebtHandler(debtUC),
		GoalHandler:        handler.NewGoalHandler(goalUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		CategoryHandler:    handler.NewCategoryHandler(categoryUC),
		BudgetHandler:      handler.NewBudgetHandler(budgetUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
		HealthHandler:      health,
		Logger:             logger,
		Metrics:            m,
		Gatherer:           reg,
		RateLimiter:        a.rateLimiter,
		IdempotencyStore:   idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
	})

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return a, nil
}

// openStore connects the configured backend, running migrations for
// Postgres when enabled.
func (a *app) openStore(ctx context.Context, health *handler.HealthHandler) (*repositories, error) {
	if a.cfg.Store == config.StoreMemory {
		a.logger.Warn().Msg("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			txManager:    memory.NewTxManager(store),
			accounts:     memory.NewAccountRepository(store),
			debts:        memory.NewDebtRepository(store),
			goals:        memory.NewGoalRepository(store),
			transactions: memory.NewTransactionRepository(store),
			categories:   memory.NewCategoryRepository(store),
			budgets:      memory.NewBudgetRepository(store),
			outbox:       memory.NewOutboxRepository(store),
		}, nil
	}

	if a.cfg.MigrateOnStart {
		if err := postgres.NewMigrator(a.cfg.DatabaseURL, a.logger).Up(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    a.cfg.DatabaseURL,
		MaxConns:       a.cfg.DatabaseMaxConns,
		MinConns:       a.cfg.DatabaseMinConns,
		ConnectTimeout: a.cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	health.With("postgres", pool.Ping)
	a.logger.Info().Msg("connected to postgres")

	return &repositories{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		debts:        postgresRepo.NewDebtRepository(pool),
		goals:        postgresRepo.NewGoalRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		categories:   postgresRepo.NewCategoryRepository(pool),
		budgets:      postgresRepo.NewBudgetRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
	}, nil
}

// run serves HTTP and runs the background workers until ctx is cancelled,
// then shuts the server down gracefully.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("port", a.cfg.HTTPPort).Msg("starting server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				a.rateLimiter.Cleanup(time.Hour)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
