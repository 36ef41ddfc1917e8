package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	cache           *RecordCache
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	cache *RecordCache,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		cache:           cache,
		metrics:         metrics,
		logger:          logger.With().Str("component", "accounts").Logger(),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID  string
	Name     string
	Type     domain.AccountType
	Currency domain.Currency
	Balance  decimal.Decimal
	Logo     string
	Icon     string
}

// CreateAccount creates a new account with its opening balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Currency:  input.Currency,
		Balance:   input.Balance,
		Logo:      input.Logo,
		Icon:      input.Icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateAccount(account); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, nil, account); err != nil {
		return nil, err
	}

	uc.count(opCreate)
	if uc.metrics != nil {
		uc.metrics.RecordsCreated.WithLabelValues(kindAccount).Inc()
	}
	uc.logger.Info().Str("account_id", account.ID).Str("owner_id", account.OwnerID).Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.cache.GetAccount(ctx, uc.accountRepo, ownerID, id)
}

// ListAccounts lists the owner's accounts, oldest first.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.accountRepo.ListByOwner(ctx, ownerID)
}

// UpdateAccountInput carries the profile fields to change. Nil fields are left alone.
type UpdateAccountInput struct {
	Name *string
	Type *domain.AccountType
	Logo *string
	Icon *string
}

// UpdateAccount changes an account's profile. Balance and currency are not
// editable here.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, ownerID, id string, input UpdateAccountInput) (*domain.Account, error) {
	account, err := uc.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		account.Type = *input.Type
	}
	if input.Logo != nil {
		account.Logo = *input.Logo
	}
	if input.Icon != nil {
		account.Icon = *input.Icon
	}
	if err := domain.ValidateAccount(account); err != nil {
		return nil, err
	}

	if err := uc.save(ctx, account, "update"); err != nil {
		return nil, err
	}
	return account, nil
}

// SetBalance overwrites the balance outside of any transaction, as when
// reconciling with a bank statement.
func (uc *AccountUseCase) SetBalance(ctx context.Context, ownerID, id string, balance decimal.Decimal) (*domain.Account, error) {
	if balance.IsNegative() {
		return nil, domain.NewValidationError(domain.KindInvalidField, "balance cannot be negative")
	}
	account, err := uc.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	previous := account.Balance
	account.Balance = balance
	if err := uc.save(ctx, account, "set_balance"); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", id).
		Str("previous", previous.String()).
		Str("balance", balance.String()).
		Msg("account balance set")
	return account, nil
}

// DeleteAccount removes an account that no transaction references.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}

	inUse, err := uc.transactionRepo.ExistsForAccount(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrAccountInUse
	}

	if err := uc.accountRepo.Delete(ctx, nil, ownerID, id); err != nil {
		return err
	}
	uc.invalidate(ctx, ownerID, id)
	uc.count(opDelete)
	return nil
}

// WeekGroup is one week of an account's history.
type WeekGroup struct {
	Start        time.Time
	End          time.Time
	Total        decimal.Decimal
	Transactions []*domain.Transaction
}

// History groups the transactions touching an account by week, weeks
// starting on Sunday, newest week first. Totals are signed from the
// account's point of view.
func (uc *AccountUseCase) History(ctx context.Context, ownerID, id string) ([]*WeekGroup, error) {
	account, err := uc.GetAccount(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	txs, err := uc.transactionRepo.List(ctx, domain.TransactionFilter{
		OwnerID:   ownerID,
		AccountID: account.ID,
		Limit:     domain.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}

	var groups []*WeekGroup
	index := make(map[time.Time]*WeekGroup)
	for _, t := range txs {
		start := weekStart(t.Date)
		group, ok := index[start]
		if !ok {
			group = &WeekGroup{Start: start, End: start.AddDate(0, 0, 7), Total: decimal.Zero}
			index[start] = group
			groups = append(groups, group)
		}
		group.Transactions = append(group.Transactions, t)
		group.Total = group.Total.Add(signedAmount(t, account.ID))
	}

	return groups, nil
}

func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// signedAmount is what t added to or removed from the account.
func signedAmount(t *domain.Transaction, accountID string) decimal.Decimal {
	if !t.IsIncoming(accountID) {
		return t.Amount.Neg()
	}
	if tr, ok := t.Details.(domain.Transfer); ok && tr.ToAccountID == accountID {
		return t.ConvertedAmount()
	}
	return t.Amount
}

func (uc *AccountUseCase) load(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.accountRepo.GetByID(ctx, ownerID, id)
}

func (uc *AccountUseCase) save(ctx context.Context, account *domain.Account, op string) error {
	account.UpdatedAt = time.Now().UTC()
	if err := uc.accountRepo.Update(ctx, nil, account); err != nil {
		return err
	}
	uc.invalidate(ctx, account.OwnerID, account.ID)
	uc.count(op)
	return nil
}

func (uc *AccountUseCase) invalidate(ctx context.Context, ownerID, id string) {
	if err := uc.cache.Invalidate(ctx, kindAccount, ownerID, id); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", id).Msg("cache invalidation failed")
	}
}

func (uc *AccountUseCase) count(op string) {
	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues(op).Inc()
	}
}
