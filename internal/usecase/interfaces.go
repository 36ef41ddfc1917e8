package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/gofinance/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// AccountRepository defines data access for accounts.
// Update and UpdateBalances compare-and-swap on Version and bump it on success.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ownerID string, ids []string) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	UpdateBalances(ctx context.Context, tx Transaction, accounts []*domain.Account) error
	Delete(ctx context.Context, tx Transaction, ownerID, id string) error
}

// DebtRepository defines data access for debts, loans and credit cards.
type DebtRepository interface {
	Create(ctx context.Context, tx Transaction, debt *domain.Debt) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Debt, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ownerID string, ids []string) ([]*domain.Debt, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Debt, error)
	Update(ctx context.Context, tx Transaction, debt *domain.Debt) error
	UpdatePaidAmounts(ctx context.Context, tx Transaction, debts []*domain.Debt) error
	Delete(ctx context.Context, tx Transaction, ownerID, id string) error
}

// GoalRepository defines data access for savings goals.
type GoalRepository interface {
	Create(ctx context.Context, tx Transaction, goal *domain.Goal) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Goal, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ownerID string, ids []string) ([]*domain.Goal, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Goal, error)
	Update(ctx context.Context, tx Transaction, goal *domain.Goal) error
	UpdateCurrentAmounts(ctx context.Context, tx Transaction, goals []*domain.Goal) error
	Delete(ctx context.Context, tx Transaction, ownerID, id string) error
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, ownerID, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, ownerID, id string) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	ExistsForAccount(ctx context.Context, ownerID, accountID string) (bool, error)
}

// CategoryRepository defines data access for user-defined categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Category, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Category, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// BudgetRepository defines data access for monthly budgets.
type BudgetRepository interface {
	Get(ctx context.Context, ownerID string, year, month int) (*domain.Budget, error)
	Upsert(ctx context.Context, budget *domain.Budget) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// IdempotencyPending is the value stored under a key while its first request
// is still being served.
const IdempotencyPending = "processing"
