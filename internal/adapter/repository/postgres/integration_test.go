package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/repository/postgres"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/idgen"
	infraPostgres "github.com/iho/gofinance/internal/infrastructure/postgres"
	"github.com/iho/gofinance/internal/usecase"
)

const integrationOwner = "integration-user"

// testDB connects to DATABASE_URL with migrations applied, or skips.
func testDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, infraPostgres.NewMigrator(dbURL, zerolog.Nop()).Up())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := infraPostgres.NewPoolWithConfig(ctx, infraPostgres.PoolConfig{DatabaseURL: dbURL, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE outbox_events, transactions, budgets, categories, goals, debts, accounts`)
	require.NoError(t, err)
	return pool
}

type ledger struct {
	accounts     *postgres.AccountRepository
	transactions *postgres.TransactionRepository
	uc           *usecase.TransactionUseCase
}

func newLedger(pool *pgxpool.Pool) *ledger {
	logger := zerolog.Nop()
	l := &ledger{
		accounts:     postgres.NewAccountRepository(pool),
		transactions: postgres.NewTransactionRepository(pool),
	}
	l.uc = usecase.NewTransactionUseCase(
		postgres.NewTxManager(pool), l.accounts,
		postgres.NewDebtRepository(pool), postgres.NewGoalRepository(pool),
		l.transactions, postgres.NewOutboxRepository(pool),
		idgen.NewULIDGenerator(), postgres.NewRetrier(logger), nil, nil, logger,
	)
	return l
}

func (l *ledger) account(t *testing.T, id, balance string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, l.accounts.Create(context.Background(), nil, &domain.Account{
		ID: id, OwnerID: integrationOwner, Name: id, Type: domain.AccountTypeBank,
		Currency: domain.CurrencyPEN, Balance: decimal.RequireFromString(balance),
		CreatedAt: now, UpdatedAt: now,
	}))
}

func (l *ledger) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := l.accounts.GetByID(context.Background(), integrationOwner, id)
	require.NoError(t, err)
	return a.Balance
}

// spend posts n concurrent expenses of amount from account and counts the
// successes and balance rejections.
func (l *ledger) spend(account string, n int, amount string) (ok, rejected, failed int32) {
	var (
		wg                      sync.WaitGroup
		okN, rejectedN, failedN atomic.Int32
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := l.uc.Create(context.Background(), usecase.TransactionInput{
				OwnerID:     integrationOwner,
				Type:        domain.TypeExpense,
				Amount:      decimal.RequireFromString(amount),
				Description: "coffee",
				Date:        time.Now().UTC().Add(-time.Minute),
				AccountID:   account,
			})
			var vErr *domain.ValidationError
			switch {
			case err == nil:
				okN.Add(1)
			case errors.As(err, &vErr) && vErr.Kind == domain.KindInsufficientBalance:
				rejectedN.Add(1)
			default:
				failedN.Add(1)
			}
		}()
	}
	wg.Wait()
	return okN.Load(), rejectedN.Load(), failedN.Load()
}

func TestConcurrentExpenses(t *testing.T) {
	pool := testDB(t)
	l := newLedger(pool)

	t.Run("exact spend drains the account", func(t *testing.T) {
		l.account(t, "drain", "1000")

		ok, rejected, failed := l.spend("drain", 100, "10")
		assert.Equal(t, int32(100), ok)
		assert.Zero(t, rejected)
		assert.Zero(t, failed)
		assert.True(t, l.balance(t, "drain").IsZero())
	})

	t.Run("overspend never goes negative", func(t *testing.T) {
		l.account(t, "overdraft", "1000")

		ok, rejected, failed := l.spend("overdraft", 25, "100")
		assert.Equal(t, int32(10), ok)
		assert.Equal(t, int32(15), rejected)
		assert.Zero(t, failed)
		assert.True(t, l.balance(t, "overdraft").IsZero())

		count, err := l.transactions.List(context.Background(), domain.TransactionFilter{
			OwnerID: integrationOwner, AccountID: "overdraft", Limit: domain.MaxPageSize,
		})
		require.NoError(t, err)
		assert.Len(t, count, 10)
	})
}

func TestTransferAndDeleteRoundTrip(t *testing.T) {
	pool := testDB(t)
	l := newLedger(pool)
	ctx := context.Background()

	l.account(t, "from", "500")
	l.account(t, "to", "0")

	res, err := l.uc.Create(ctx, usecase.TransactionInput{
		OwnerID:       integrationOwner,
		Type:          domain.TypeTransfer,
		Amount:        decimal.RequireFromString("120.50"),
		Description:   "savings",
		Date:          time.Now().UTC().Add(-time.Minute),
		FromAccountID: "from",
		ToAccountID:   "to",
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("379.50").Equal(l.balance(t, "from")))
	assert.True(t, decimal.RequireFromString("120.50").Equal(l.balance(t, "to")))

	_, err = l.uc.Delete(ctx, integrationOwner, res.Transaction.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500").Equal(l.balance(t, "from")))
	assert.True(t, l.balance(t, "to").IsZero())

	_, err = l.uc.Get(ctx, integrationOwner, res.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}
