package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// uncategorized is the bucket for expenses without a category.
const uncategorized = "other"

// BudgetUseCase manages monthly budgets and reports spending against them.
type BudgetUseCase struct {
	budgetRepo      BudgetRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	loc             *time.Location
}

// NewBudgetUseCase creates a new BudgetUseCase. Months are computed in UTC.
func NewBudgetUseCase(budgetRepo BudgetRepository, transactionRepo TransactionRepository, idGen IDGenerator) *BudgetUseCase {
	return &BudgetUseCase{
		budgetRepo:      budgetRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		loc:             time.UTC,
	}
}

// GetBudget returns the owner's budget for a month.
func (uc *BudgetUseCase) GetBudget(ctx context.Context, ownerID string, year, month int) (*domain.Budget, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if err := domain.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	return uc.budgetRepo.Get(ctx, ownerID, year, month)
}

// SetBudgetInput represents input for saving a month's budget.
type SetBudgetInput struct {
	OwnerID        string
	Year           int
	Month          int
	TotalIncome    decimal.Decimal
	CategoryLimits map[string]decimal.Decimal
}

// SetBudget creates or replaces the budget of a month.
func (uc *BudgetUseCase) SetBudget(ctx context.Context, input SetBudgetInput) (*domain.Budget, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if err := domain.ValidatePeriod(input.Year, input.Month); err != nil {
		return nil, err
	}
	if input.TotalIncome.IsNegative() {
		return nil, domain.NewValidationError(domain.KindInvalidField, "total income cannot be negative")
	}
	for _, limit := range input.CategoryLimits {
		if limit.IsNegative() {
			return nil, domain.ErrInvalidCategoryLimit
		}
	}

	now := time.Now().UTC()
	budget := &domain.Budget{
		ID:             uc.idGen.Generate(),
		OwnerID:        input.OwnerID,
		Year:           input.Year,
		Month:          input.Month,
		TotalIncome:    input.TotalIncome,
		CategoryLimits: input.CategoryLimits,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if budget.CategoryLimits == nil {
		budget.CategoryLimits = map[string]decimal.Decimal{}
	}

	if err := uc.budgetRepo.Upsert(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Status compares a month's budget with its expenses. A month without a
// budget reports spending against no limits.
func (uc *BudgetUseCase) Status(ctx context.Context, ownerID string, year, month int) (*domain.BudgetStatus, error) {
	budget, err := uc.GetBudget(ctx, ownerID, year, month)
	if errors.Is(err, domain.ErrBudgetNotFound) {
		budget = &domain.Budget{OwnerID: ownerID, Year: year, Month: month}
	} else if err != nil {
		return nil, err
	}

	from, to := domain.PeriodBounds(year, month, uc.loc)
	txs, err := listAll(ctx, uc.transactionRepo, domain.TransactionFilter{
		OwnerID: ownerID,
		Type:    domain.TypeExpense,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range txs {
		category := t.CategoryID
		if category == "" {
			category = uncategorized
		}
		spent[category] = spent[category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	average, err := uc.averageIncome(ctx, ownerID, from)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool)
	for id := range budget.CategoryLimits {
		ids[id] = true
	}
	for id := range spent {
		ids[id] = true
	}

	categories := make([]domain.CategorySpending, 0, len(ids))
	for id := range ids {
		limit := budget.CategoryLimits[id]
		categories = append(categories, domain.CategorySpending{
			CategoryID: id,
			Limit:      limit,
			Spent:      spent[id],
			Remaining:  limit.Sub(spent[id]),
			Percent:    domain.Percent(spent[id], limit),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].Spent.Equal(categories[j].Spent) {
			return categories[i].Spent.GreaterThan(categories[j].Spent)
		}
		return categories[i].CategoryID < categories[j].CategoryID
	})

	return &domain.BudgetStatus{
		Year:          year,
		Month:         month,
		TotalIncome:   budget.TotalIncome,
		AverageIncome: average,
		TotalLimits:   budget.TotalLimits(),
		TotalSpent:    total,
		Remaining:     average.Sub(total),
		Categories:    categories,
	}, nil
}

// averageIncome averages income over the months ending with the one starting
// at monthStart, counting only months that had any.
func (uc *BudgetUseCase) averageIncome(ctx context.Context, ownerID string, monthStart time.Time) (decimal.Decimal, error) {
	from := monthStart.AddDate(0, 1-IncomeAverageMonths, 0)
	to := monthStart.AddDate(0, 1, 0)

	perMonth := make(map[time.Time]decimal.Decimal)
	for _, typ := range []domain.TransactionType{domain.TypeIncome, domain.TypeReceiveDebtPayment} {
		txs, err := listAll(ctx, uc.transactionRepo, domain.TransactionFilter{
			OwnerID: ownerID,
			Type:    typ,
			From:    &from,
			To:      &to,
		})
		if err != nil {
			return decimal.Zero, err
		}
		for _, t := range txs {
			d := t.Date.In(uc.loc)
			key := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, uc.loc)
			perMonth[key] = perMonth[key].Add(t.Amount)
		}
	}

	sum, months := decimal.Zero, 0
	for _, income := range perMonth {
		if income.IsPositive() {
			sum = sum.Add(income)
			months++
		}
	}
	if months == 0 {
		return decimal.Zero, nil
	}
	return sum.Div(decimal.NewFromInt(int64(months))).Round(2), nil
}

// listAll pages through every transaction matching filter.
func listAll(ctx context.Context, repo TransactionRepository, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	filter.Limit = domain.MaxPageSize
	filter.Offset = 0

	var all []*domain.Transaction
	for {
		page, err := repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			return all, nil
		}
		filter.Offset += len(page)
	}
}
