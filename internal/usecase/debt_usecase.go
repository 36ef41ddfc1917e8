package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// DebtUseCase manages debts, money lent out and credit cards.
type DebtUseCase struct {
	debtRepo DebtRepository
	idGen    IDGenerator
	cache    *RecordCache
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	clock    func() time.Time
}

// NewDebtUseCase creates a new DebtUseCase.
func NewDebtUseCase(debtRepo DebtRepository, idGen IDGenerator, cache *RecordCache, metrics *metrics.Metrics, logger zerolog.Logger) *DebtUseCase {
	return &DebtUseCase{
		debtRepo: debtRepo,
		idGen:    idGen,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With().Str("component", "debts").Logger(),
		clock:    time.Now,
	}
}

// CreateDebtInput represents input for creating a debt.
type CreateDebtInput struct {
	OwnerID        string
	Name           string
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	Currency       domain.Currency
	DueDate        *time.Time
	IsLent         bool
	IsCreditCard   bool
	CreditLimit    *decimal.Decimal
	CutoffDay      *int
	PaymentDay     *int
	LastFourDigits string
	MinimumPayment *decimal.Decimal
	TotalPayment   *decimal.Decimal
	Logo           string
	Icon           string
}

// CreateDebt records a new debt. PaidAmount is the amount already settled
// before tracking started.
func (uc *DebtUseCase) CreateDebt(ctx context.Context, input CreateDebtInput) (*domain.Debt, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	now := time.Now().UTC()

	debt := &domain.Debt{
		ID:             uc.idGen.Generate(),
		OwnerID:        input.OwnerID,
		Name:           strings.TrimSpace(input.Name),
		TotalAmount:    input.TotalAmount,
		PaidAmount:     input.PaidAmount,
		Currency:       input.Currency,
		DueDate:        input.DueDate,
		IsLent:         input.IsLent,
		IsCreditCard:   input.IsCreditCard,
		CreditLimit:    input.CreditLimit,
		CutoffDay:      input.CutoffDay,
		PaymentDay:     input.PaymentDay,
		LastFourDigits: input.LastFourDigits,
		MinimumPayment: input.MinimumPayment,
		TotalPayment:   input.TotalPayment,
		Logo:           input.Logo,
		Icon:           input.Icon,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := domain.ValidateDebt(debt); err != nil {
		return nil, err
	}

	if err := uc.debtRepo.Create(ctx, nil, debt); err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.RecordsCreated.WithLabelValues(kindDebt).Inc()
	}
	uc.logger.Info().Str("debt_id", debt.ID).Str("kind", string(debt.Kind())).Msg("debt created")

	return debt, nil
}

// GetDebt retrieves a debt by ID.
func (uc *DebtUseCase) GetDebt(ctx context.Context, ownerID, id string) (*domain.Debt, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.cache.GetDebt(ctx, uc.debtRepo, ownerID, id)
}

// ListDebts lists the owner's debts, optionally only one kind.
func (uc *DebtUseCase) ListDebts(ctx context.Context, ownerID string, kind domain.DebtKind) ([]*domain.Debt, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	debts, err := uc.debtRepo.ListByOwner(ctx, ownerID)
	if err != nil || kind == "" {
		return debts, err
	}

	filtered := debts[:0]
	for _, d := range debts {
		if d.Kind() == kind {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// UpdateDebtInput carries the fields to change. Nil fields are left alone.
// The kind, currency and paid amount are not editable.
type UpdateDebtInput struct {
	Name           *string
	TotalAmount    *decimal.Decimal
	DueDate        *time.Time
	CreditLimit    *decimal.Decimal
	CutoffDay      *int
	PaymentDay     *int
	LastFourDigits *string
	MinimumPayment *decimal.Decimal
	TotalPayment   *decimal.Decimal
	Logo           *string
	Icon           *string
}

// UpdateDebt changes a debt's details.
func (uc *DebtUseCase) UpdateDebt(ctx context.Context, ownerID, id string, input UpdateDebtInput) (*domain.Debt, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	debt, err := uc.debtRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		debt.Name = strings.TrimSpace(*input.Name)
	}
	if input.TotalAmount != nil {
		debt.TotalAmount = *input.TotalAmount
	}
	if input.DueDate != nil {
		debt.DueDate = input.DueDate
	}
	if input.CreditLimit != nil {
		debt.CreditLimit = input.CreditLimit
	}
	if input.CutoffDay != nil {
		debt.CutoffDay = input.CutoffDay
	}
	if input.PaymentDay != nil {
		debt.PaymentDay = input.PaymentDay
	}
	if input.LastFourDigits != nil {
		debt.LastFourDigits = *input.LastFourDigits
	}
	if input.MinimumPayment != nil {
		debt.MinimumPayment = input.MinimumPayment
	}
	if input.TotalPayment != nil {
		debt.TotalPayment = input.TotalPayment
	}
	if input.Logo != nil {
		debt.Logo = *input.Logo
	}
	if input.Icon != nil {
		debt.Icon = *input.Icon
	}
	if err := domain.ValidateDebt(debt); err != nil {
		return nil, err
	}

	debt.UpdatedAt = time.Now().UTC()
	if err := uc.debtRepo.Update(ctx, nil, debt); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, ownerID, id)
	return debt, nil
}

// DeleteDebt removes a debt. Transactions that paid it are kept; reverting
// them later skips the missing debt.
func (uc *DebtUseCase) DeleteDebt(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}
	if err := uc.debtRepo.Delete(ctx, nil, ownerID, id); err != nil {
		return err
	}
	uc.invalidate(ctx, ownerID, id)
	uc.logger.Info().Str("debt_id", id).Msg("debt deleted")
	return nil
}

// CreditCardStatuses reports limit usage and the next due date of every
// credit card, most urgent first.
func (uc *DebtUseCase) CreditCardStatuses(ctx context.Context, ownerID string) ([]domain.CreditCardStatus, error) {
	cards, err := uc.ListDebts(ctx, ownerID, domain.DebtKindCreditCard)
	if err != nil {
		return nil, err
	}

	now := uc.clock()
	statuses := make([]domain.CreditCardStatus, 0, len(cards))
	for _, card := range cards {
		statuses = append(statuses, card.CreditCardStatus(now))
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i].DaysUntil, statuses[j].DaysUntil
		if a == nil || b == nil {
			return a != nil
		}
		return *a < *b
	})
	return statuses, nil
}

func (uc *DebtUseCase) invalidate(ctx context.Context, ownerID, id string) {
	if err := uc.cache.Invalidate(ctx, kindDebt, ownerID, id); err != nil {
		uc.logger.Warn().Err(err).Str("debt_id", id).Msg("cache invalidation failed")
	}
}
