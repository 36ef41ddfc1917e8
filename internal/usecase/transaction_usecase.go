package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/logger"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// TransactionUseCase keeps account balances, debt payments and goal savings
// consistent with the transactions that move them.
type TransactionUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	debtRepo        DebtRepository
	goalRepo        GoalRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retrier         Retrier
	cache           *RecordCache
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	clock           func() time.Time
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	debtRepo DebtRepository,
	goalRepo GoalRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache *RecordCache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		debtRepo:        debtRepo,
		goalRepo:        goalRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		retrier:         retrier,
		cache:           cache,
		metrics:         metrics,
		logger:          logger.With().Str("component", "ledger").Logger(),
		clock:           func() time.Time { return time.Now().UTC() },
	}
}

// TransactionInput represents input for creating or replacing a transaction.
// TRANSFER reads FromAccountID and ToAccountID, falling back to AccountID
// for the destination; every other type reads AccountID.
type TransactionInput struct {
	OwnerID       string
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Description   string
	Date          time.Time
	CategoryID    string
	AccountID     string
	FromAccountID string
	ToAccountID   string
	DebtID        string
	GoalID        string
	ExchangeRate  *decimal.Decimal
}

// ToDomain builds the transaction described by the input.
func (in TransactionInput) ToDomain() (*domain.Transaction, error) {
	t := &domain.Transaction{
		OwnerID:     in.OwnerID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		CategoryID:  in.CategoryID,
	}

	switch in.Type {
	case domain.TypeIncome:
		t.Details = domain.Income{AccountID: in.AccountID}
	case domain.TypeExpense:
		t.Details = domain.Expense{AccountID: in.AccountID}
	case domain.TypeTransfer:
		to := in.ToAccountID
		if to == "" {
			to = in.AccountID
		}
		t.Details = domain.Transfer{FromAccountID: in.FromAccountID, ToAccountID: to, ExchangeRate: in.ExchangeRate}
	case domain.TypePayDebt:
		t.Details = domain.DebtPayment{AccountID: in.AccountID, DebtID: in.DebtID}
	case domain.TypePayCreditCard:
		t.Details = domain.CreditCardPayment{AccountID: in.AccountID, DebtID: in.DebtID}
	case domain.TypeSaveForGoal:
		t.Details = domain.GoalContribution{AccountID: in.AccountID, GoalID: in.GoalID}
	case domain.TypeReceiveDebtPayment:
		t.Details = domain.LoanCollection{AccountID: in.AccountID, DebtID: in.DebtID}
	default:
		return nil, domain.NewValidationError(domain.KindInvalidField, "unknown transaction type "+string(in.Type))
	}

	return t, nil
}

// MutationResult carries the transaction and every record the mutation wrote.
type MutationResult struct {
	Transaction *domain.Transaction
	Accounts    []*domain.Account
	Debts       []*domain.Debt
	Goals       []*domain.Goal
	Orphaned    []domain.Delta
}

func newMutationResult(t *domain.Transaction, changes domain.Changes) *MutationResult {
	return &MutationResult{
		Transaction: t,
		Accounts:    changes.Accounts,
		Debts:       changes.Debts,
		Goals:       changes.Goals,
		Orphaned:    changes.Orphans,
	}
}

// Create validates and records a new transaction, applying its effect.
func (uc *TransactionUseCase) Create(ctx context.Context, input TransactionInput) (*MutationResult, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	draft, err := input.ToDomain()
	if err != nil {
		return nil, err
	}
	draft.ID = uc.idGen.Generate()

	start := time.Now()
	var result *MutationResult
	err = uc.retry(ctx, func() error {
		var err error
		result, err = uc.create(ctx, draft.Clone())
		return err
	})
	uc.observe(ctx, opCreate, draft, start, err)

	return result, err
}

func (uc *TransactionUseCase) create(ctx context.Context, draft *domain.Transaction) (*MutationResult, error) {
	m, err := uc.begin(ctx, draft.OwnerID)
	if err != nil {
		return nil, err
	}
	defer m.close()

	if err := m.load(draft); err != nil {
		return nil, m.fail("load", err)
	}

	domain.NormalizeTransfer(draft, m.state)
	if err := uc.validate(draft, m.state, m.now); err != nil {
		return nil, err
	}

	draft.CreatedAt = m.now
	draft.UpdatedAt = m.now

	changes := m.apply(domain.MergeDeltas(domain.ComputeDeltas(draft, domain.Apply)))
	if err := m.persist(changes); err != nil {
		return nil, err
	}
	if err := m.recordEvent(domain.EventTypeTransactionCreated, draft, changes); err != nil {
		return nil, err
	}
	if err := uc.transactionRepo.Create(m.ctx, m.tx, draft); err != nil {
		return nil, m.fail("transaction", err)
	}
	if err := m.commit(); err != nil {
		return nil, err
	}

	return newMutationResult(draft, changes), nil
}

// Update replaces transaction id with input. The old effect is reverted and
// the new one applied as a single net write per record; CreatedAt is kept.
func (uc *TransactionUseCase) Update(ctx context.Context, id string, input TransactionInput) (*MutationResult, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	draft, err := input.ToDomain()
	if err != nil {
		return nil, err
	}
	draft.ID = id

	start := time.Now()
	var result *MutationResult
	err = uc.retry(ctx, func() error {
		var err error
		result, err = uc.update(ctx, draft.Clone())
		return err
	})
	uc.observe(ctx, opUpdate, draft, start, err)

	return result, err
}

func (uc *TransactionUseCase) update(ctx context.Context, draft *domain.Transaction) (*MutationResult, error) {
	m, err := uc.begin(ctx, draft.OwnerID)
	if err != nil {
		return nil, err
	}
	defer m.close()

	existing, err := uc.transactionRepo.GetByIDForUpdate(m.ctx, m.tx, draft.OwnerID, draft.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, m.fail("load", err)
	}

	if err := m.load(existing, draft); err != nil {
		return nil, m.fail("load", err)
	}

	domain.NormalizeTransfer(draft, m.state)

	// Validate against the state as it would be without the old transaction.
	revert := domain.ComputeDeltas(existing, domain.Revert)
	view := m.state.Clone()
	view.Apply(revert, m.now)
	if err := uc.validate(draft, view, m.now); err != nil {
		return nil, err
	}

	draft.CreatedAt = existing.CreatedAt
	draft.UpdatedAt = m.now
	draft.Version = existing.Version

	changes := m.apply(domain.MergeDeltas(revert, domain.ComputeDeltas(draft, domain.Apply)))
	if err := m.persist(changes); err != nil {
		return nil, err
	}
	if err := m.recordEvent(domain.EventTypeTransactionUpdated, draft, changes); err != nil {
		return nil, err
	}
	if err := uc.transactionRepo.Update(m.ctx, m.tx, draft); err != nil {
		return nil, m.fail("transaction", err)
	}
	if err := m.commit(); err != nil {
		return nil, err
	}

	return newMutationResult(draft, changes), nil
}

// Delete removes a transaction and reverts its effect. Records that no longer
// exist are skipped.
func (uc *TransactionUseCase) Delete(ctx context.Context, ownerID, id string) (*MutationResult, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	start := time.Now()
	var result *MutationResult
	err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.delete(ctx, ownerID, id)
		return err
	})

	var deleted *domain.Transaction
	if result != nil {
		deleted = result.Transaction
	}
	uc.observe(ctx, opDelete, deleted, start, err)

	return result, err
}

func (uc *TransactionUseCase) delete(ctx context.Context, ownerID, id string) (*MutationResult, error) {
	m, err := uc.begin(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer m.close()

	existing, err := uc.transactionRepo.GetByIDForUpdate(m.ctx, m.tx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, m.fail("load", err)
	}

	if err := m.load(existing); err != nil {
		return nil, m.fail("load", err)
	}

	changes := m.apply(domain.MergeDeltas(domain.ComputeDeltas(existing, domain.Revert)))
	if err := m.persist(changes); err != nil {
		return nil, err
	}
	if err := m.recordEvent(domain.EventTypeTransactionDeleted, existing, changes); err != nil {
		return nil, err
	}
	if err := uc.transactionRepo.Delete(m.ctx, m.tx, ownerID, id); err != nil {
		return nil, m.fail("transaction", err)
	}
	if err := m.commit(); err != nil {
		return nil, err
	}

	return newMutationResult(existing, changes), nil
}

// Get returns one transaction.
func (uc *TransactionUseCase) Get(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.transactionRepo.GetByID(ctx, ownerID, id)
}

// List returns the owner's transactions, newest first.
func (uc *TransactionUseCase) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.transactionRepo.List(ctx, filter)
}

func (uc *TransactionUseCase) validate(t *domain.Transaction, state *domain.LedgerState, now time.Time) error {
	err := domain.ValidateTransaction(t, state, now)
	if err == nil {
		return nil
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		if uc.metrics != nil {
			uc.metrics.ValidationFailures.WithLabelValues(string(vErr.Kind)).Inc()
		}
		uc.logger.Debug().Str("kind", string(vErr.Kind)).Str("type", string(t.Type())).Msg("transaction rejected")
	}
	return err
}

func (uc *TransactionUseCase) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

func (uc *TransactionUseCase) observe(ctx context.Context, op string, t *domain.Transaction, start time.Time, err error) {
	if err != nil {
		return
	}

	log := logger.FromContext(ctx, uc.logger)
	log.Info().
		Str("operation", op).
		Str("transaction_id", t.ID).
		Str("type", string(t.Type())).
		Str("owner_id", t.OwnerID).
		Dur("duration", time.Since(start)).
		Msg("ledger mutation committed")

	if uc.metrics == nil {
		return
	}
	uc.metrics.TransactionsMutated.WithLabelValues(op, string(t.Type())).Inc()
	uc.metrics.MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if op == opCreate {
		amount, _ := t.Amount.Float64()
		uc.metrics.TransactionAmount.Observe(amount)
	}
}

func (uc *TransactionUseCase) countFailure(stage string) {
	if uc.metrics != nil {
		uc.metrics.PersistenceFailures.WithLabelValues(stage).Inc()
	}
}
