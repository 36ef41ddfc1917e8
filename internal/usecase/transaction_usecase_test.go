package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/repository/memory"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/usecase"
)

const owner = "user-1"

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%03d", g.n.Add(1))
}

// conflictRetrier retries only version conflicts, without sleeping.
type conflictRetrier struct{ attempts int }

func (r *conflictRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < 3; i++ {
		r.attempts++
		if err = operation(); !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return err
}

type fixture struct {
	store    *memory.Store
	accounts usecase.AccountRepository
	debts    usecase.DebtRepository
	goals    usecase.GoalRepository
	txs      *memory.TransactionRepository
	outbox   *memory.OutboxRepository
	retrier  *conflictRetrier
	metrics  *metrics.Metrics
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:    store,
		accounts: memory.NewAccountRepository(store),
		debts:    memory.NewDebtRepository(store),
		goals:    memory.NewGoalRepository(store),
		txs:      memory.NewTransactionRepository(store),
		outbox:   memory.NewOutboxRepository(store),
		retrier:  &conflictRetrier{},
		metrics:  metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}
}

func (f *fixture) useCase() *usecase.TransactionUseCase {
	return usecase.NewTransactionUseCase(
		memory.NewTxManager(f.store),
		f.accounts,
		f.debts,
		f.goals,
		f.txs,
		f.outbox,
		&seqIDs{},
		f.retrier,
		nil,
		f.metrics,
		zerolog.Nop(),
	)
}

func (f *fixture) account(t *testing.T, id string, currency domain.Currency, balance string) {
	t.Helper()
	require.NoError(t, f.accounts.Create(context.Background(), nil, &domain.Account{
		ID: id, OwnerID: owner, Name: id, Type: domain.AccountTypeBank,
		Currency: currency, Balance: dec(balance), CreatedAt: time.Now(),
	}))
}

func (f *fixture) debt(t *testing.T, d *domain.Debt) {
	t.Helper()
	d.OwnerID = owner
	d.Currency = domain.CurrencyPEN
	require.NoError(t, f.debts.Create(context.Background(), nil, d))
}

func (f *fixture) goal(t *testing.T, id, target, current string) {
	t.Helper()
	require.NoError(t, f.goals.Create(context.Background(), nil, &domain.Goal{
		ID: id, OwnerID: owner, Name: id, TargetAmount: dec(target),
		CurrentAmount: dec(current), Currency: domain.CurrencyPEN,
	}))
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := f.accounts.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) paid(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	d, err := f.debts.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	return d.PaidAmount
}

func (f *fixture) saved(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	g, err := f.goals.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	return g.CurrentAmount
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(typ domain.TransactionType, amount string) usecase.TransactionInput {
	return usecase.TransactionInput{
		OwnerID:     owner,
		Type:        typ,
		Amount:      dec(amount),
		Description: string(typ),
		Date:        time.Now(),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"expected %s, got %s", want, got}, msgAndArgs...)...)
}

func TestTransactionUseCase_TransferScenario(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "1000")
	f.account(t, "B", domain.CurrencyPEN, "500")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeTransfer, "200")
	in.FromAccountID, in.ToAccountID = "A", "B"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assert.Len(t, res.Accounts, 2)
	assertDecimal(t, "800", f.balance(t, "A"))
	assertDecimal(t, "700", f.balance(t, "B"))

	in = input(domain.TypeTransfer, "100")
	in.FromAccountID, in.ToAccountID = "B", "A"
	_, err = uc.Create(ctx, in)
	require.NoError(t, err)
	assertDecimal(t, "900", f.balance(t, "A"))
	assertDecimal(t, "600", f.balance(t, "B"))
}

func TestTransactionUseCase_DebtEditScenario(t *testing.T) {
	f := newFixture()
	f.account(t, "acc", domain.CurrencyPEN, "850")
	f.debt(t, &domain.Debt{ID: "D", Name: "Loan", TotalAmount: dec("1000")})
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypePayDebt, "300")
	in.AccountID, in.DebtID = "acc", "D"
	created, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assertDecimal(t, "300", f.paid(t, "D"))
	assertDecimal(t, "550", f.balance(t, "acc"))

	in.Amount = dec("500")
	updated, err := uc.Update(ctx, created.Transaction.ID, in)
	require.NoError(t, err)
	assertDecimal(t, "500", f.paid(t, "D"), "net, not 800")
	assertDecimal(t, "350", f.balance(t, "acc"))
	assert.Equal(t, created.Transaction.CreatedAt, updated.Transaction.CreatedAt)

	stored, err := uc.Get(ctx, owner, created.Transaction.ID)
	require.NoError(t, err)
	assertDecimal(t, "500", stored.Amount)
}

func TestTransactionUseCase_CrossCurrencyScenario(t *testing.T) {
	f := newFixture()
	f.account(t, "pen", domain.CurrencyPEN, "1000")
	f.account(t, "usd", domain.CurrencyUSD, "100")
	uc := f.useCase()
	ctx := context.Background()

	rate := dec("0.27")
	in := input(domain.TypeTransfer, "200")
	in.FromAccountID, in.ToAccountID, in.ExchangeRate = "pen", "usd", &rate
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)

	assertDecimal(t, "54", res.Transaction.ConvertedAmount())
	tr := res.Transaction.Details.(domain.Transfer)
	assert.Equal(t, domain.CurrencyPEN, tr.FromCurrency)
	assert.Equal(t, domain.CurrencyUSD, tr.ToCurrency)
	assertDecimal(t, "800", f.balance(t, "pen"))
	assertDecimal(t, "154", f.balance(t, "usd"))

	_, err = uc.Delete(ctx, owner, res.Transaction.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", f.balance(t, "pen"))
	assertDecimal(t, "100", f.balance(t, "usd"))
}

func TestTransactionUseCase_NetMergeWritesOncePerRecord(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "1000")
	counting := &countingAccounts{AccountRepository: f.accounts}
	f.accounts = counting
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeExpense, "100")
	in.AccountID = "A"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)

	counting.batches = nil
	in.Amount = dec("60")
	_, err = uc.Update(ctx, res.Transaction.ID, in)
	require.NoError(t, err)

	require.Len(t, counting.batches, 1)
	require.Len(t, counting.batches[0], 1)
	assertDecimal(t, "940", f.balance(t, "A"))
}

func TestTransactionUseCase_UpdateMovesEffectBetweenAccounts(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	f.account(t, "B", domain.CurrencyPEN, "100")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeIncome, "50")
	in.AccountID = "A"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)

	in.Type = domain.TypeExpense
	in.AccountID = "B"
	_, err = uc.Update(ctx, res.Transaction.ID, in)
	require.NoError(t, err)
	assertDecimal(t, "100", f.balance(t, "A"))
	assertDecimal(t, "50", f.balance(t, "B"))
}

func TestTransactionUseCase_UpdateValidatesAgainstRevertedState(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "500")
	f.goal(t, "G", "100", "0")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeSaveForGoal, "100")
	in.AccountID, in.GoalID = "A", "G"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)
	assertDecimal(t, "100", f.saved(t, "G"))

	// The goal is reached, but editing the contribution itself is allowed.
	in.Description = "renamed"
	_, err = uc.Update(ctx, res.Transaction.ID, in)
	require.NoError(t, err)
	assertDecimal(t, "100", f.saved(t, "G"))
	assertDecimal(t, "400", f.balance(t, "A"))

	// A second contribution is rejected.
	_, err = uc.Create(ctx, in)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.KindGoalReached, vErr.Kind)
}

func TestTransactionUseCase_OrphanTolerance(t *testing.T) {
	f := newFixture()
	f.account(t, "acc", domain.CurrencyPEN, "500")
	f.debt(t, &domain.Debt{ID: "D", Name: "Loan", TotalAmount: dec("1000")})
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypePayDebt, "200")
	in.AccountID, in.DebtID = "acc", "D"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, f.debts.Delete(ctx, nil, owner, "D"))

	deleted, err := uc.Delete(ctx, owner, res.Transaction.ID)
	require.NoError(t, err)
	assertDecimal(t, "500", f.balance(t, "acc"))
	require.Len(t, deleted.Orphaned, 1)
	assert.Equal(t, domain.TargetDebt, deleted.Orphaned[0].Target.Kind)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.OrphanedDeltas.WithLabelValues("debt")))

	_, err = uc.Get(ctx, owner, res.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionUseCase_DeleteWithDanglingAccount(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	f.account(t, "B", domain.CurrencyPEN, "0")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeTransfer, "40")
	in.FromAccountID, in.ToAccountID = "A", "B"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, f.accounts.Delete(ctx, nil, owner, "B"))

	_, err = uc.Delete(ctx, owner, res.Transaction.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", f.balance(t, "A"))
}

func TestTransactionUseCase_ValidationBlocksMutation(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	f.goal(t, "G", "1000", "0")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeSaveForGoal, "150")
	in.AccountID, in.GoalID = "A", "G"
	_, err := uc.Create(ctx, in)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.KindInsufficientBalance, vErr.Kind)
	assert.Equal(t, "insufficient balance in A, available S/ 100.00", vErr.Message)

	assertDecimal(t, "100", f.balance(t, "A"))
	assertDecimal(t, "0", f.saved(t, "G"))
	list, err := uc.List(ctx, domain.TransactionFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Empty(t, list)
	events, err := f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("insufficient_balance")))
}

func TestTransactionUseCase_FailedWriteIsRolledBack(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "500")
	f.goal(t, "G", "1000", "0")
	boom := errors.New("disk full")
	f.goals = failingGoals{GoalRepository: f.goals, err: boom}
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeSaveForGoal, "100")
	in.AccountID, in.GoalID = "A", "G"
	res, err := uc.Create(ctx, in)

	require.Nil(t, res)
	var pErr *usecase.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.True(t, pErr.Retryable())
	assert.Equal(t, "goals", pErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.retrier.attempts, "persistence failures are not retried")

	assertDecimal(t, "500", f.balance(t, "A"))
	assertDecimal(t, "0", f.saved(t, "G"))
	list, err := f.txs.List(ctx, domain.TransactionFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Compensations))
}

func TestTransactionUseCase_RetriesVersionConflict(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	racing := &racingAccounts{AccountRepository: f.accounts}
	f.accounts = racing
	uc := f.useCase()

	in := input(domain.TypeExpense, "30")
	in.AccountID = "A"
	_, err := uc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, f.retrier.attempts)
	// The concurrent +10 and this -30 both landed.
	assertDecimal(t, "80", f.balance(t, "A"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.VersionConflicts))

	list, err := f.txs.List(context.Background(), domain.TransactionFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTransactionUseCase_Errors(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	uc := f.useCase()
	ctx := context.Background()

	t.Run("owner required", func(t *testing.T) {
		in := input(domain.TypeIncome, "1")
		in.OwnerID = ""
		_, err := uc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrOwnerRequired)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := uc.Create(ctx, input("LOTTERY", "1"))
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("update missing transaction", func(t *testing.T) {
		in := input(domain.TypeIncome, "1")
		in.AccountID = "A"
		_, err := uc.Update(ctx, "nope", in)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("delete missing transaction", func(t *testing.T) {
		_, err := uc.Delete(ctx, owner, "nope")
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("other owner cannot see transaction", func(t *testing.T) {
		in := input(domain.TypeIncome, "1")
		in.AccountID = "A"
		res, err := uc.Create(ctx, in)
		require.NoError(t, err)
		_, err = uc.Get(ctx, "user-2", res.Transaction.ID)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})
}

func TestTransactionUseCase_RecordsOutboxEvents(t *testing.T) {
	f := newFixture()
	f.account(t, "A", domain.CurrencyPEN, "100")
	uc := f.useCase()
	ctx := context.Background()

	in := input(domain.TypeIncome, "10")
	in.AccountID = "A"
	res, err := uc.Create(ctx, in)
	require.NoError(t, err)
	_, err = uc.Update(ctx, res.Transaction.ID, in)
	require.NoError(t, err)
	_, err = uc.Delete(ctx, owner, res.Transaction.ID)
	require.NoError(t, err)

	events, err := f.outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventTypeTransactionCreated, events[0].EventType)
	assert.Equal(t, domain.EventTypeTransactionUpdated, events[1].EventType)
	assert.Equal(t, domain.EventTypeTransactionDeleted, events[2].EventType)
	assert.Equal(t, res.Transaction.ID, events[2].AggregateID)
	assert.Equal(t, owner, events[0].OwnerID)
}

type countingAccounts struct {
	usecase.AccountRepository
	batches [][]*domain.Account
}

func (c *countingAccounts) UpdateBalances(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	c.batches = append(c.batches, accounts)
	return c.AccountRepository.UpdateBalances(ctx, tx, accounts)
}

type failingGoals struct {
	usecase.GoalRepository
	err error
}

func (f failingGoals) UpdateCurrentAmounts(context.Context, usecase.Transaction, []*domain.Goal) error {
	return f.err
}

// racingAccounts lets another writer bump the balance just before the
// first batch write, forcing a version conflict.
type racingAccounts struct {
	usecase.AccountRepository
	raced bool
}

func (r *racingAccounts) UpdateBalances(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	if !r.raced {
		r.raced = true
		current, err := r.AccountRepository.GetByID(ctx, accounts[0].OwnerID, accounts[0].ID)
		if err != nil {
			return err
		}
		current.Balance = current.Balance.Add(decimal.NewFromInt(10))
		if err := r.AccountRepository.UpdateBalances(ctx, nil, []*domain.Account{current}); err != nil {
			return err
		}
	}
	return r.AccountRepository.UpdateBalances(ctx, tx, accounts)
}
