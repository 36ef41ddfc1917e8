package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a store transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultCacheTTL is how long records stay in the read-through cache
	DefaultCacheTTL = 5 * time.Minute

	// IncomeAverageMonths is the window of the budget's average income
	IncomeAverageMonths = 6
)

// Mutation operations, used as metric labels and outbox event suffixes.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Cache record kinds.
const (
	kindAccount = "account"
	kindDebt    = "debt"
	kindGoal    = "goal"
)
