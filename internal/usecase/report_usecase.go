package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// Money is an amount per currency.
type Money map[domain.Currency]decimal.Decimal

func (m Money) add(c domain.Currency, amount decimal.Decimal) {
	m[c] = m[c].Add(amount)
}

// CategoryTotal is the spending of one category.
type CategoryTotal struct {
	CategoryID string
	Amount     decimal.Decimal
}

// Summary is the dashboard view of an owner's finances.
type Summary struct {
	Year           int
	Month          int
	Balances       Money
	OwedDebt       Money
	CreditCardDebt Money
	NetWorth       Money
	MonthIncome    decimal.Decimal
	MonthExpense   decimal.Decimal
	CashFlow       decimal.Decimal
	SavingsRate    decimal.Decimal
	Spending       []CategoryTotal
	// BudgetHealth is the month's expense as a percent of the budgeted
	// income, nil without a budget.
	BudgetHealth *decimal.Decimal
}

// ReportUseCase builds the dashboard summary.
type ReportUseCase struct {
	accountRepo     AccountRepository
	debtRepo        DebtRepository
	transactionRepo TransactionRepository
	budgetRepo      BudgetRepository
	clock           func() time.Time
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	accountRepo AccountRepository,
	debtRepo DebtRepository,
	transactionRepo TransactionRepository,
	budgetRepo BudgetRepository,
) *ReportUseCase {
	return &ReportUseCase{
		accountRepo:     accountRepo,
		debtRepo:        debtRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		clock:           func() time.Time { return time.Now().UTC() },
	}
}

// Summary reports balances, outstanding debt and net worth per currency, and
// the current month's cash flow. Money lent out is not counted as debt.
func (uc *ReportUseCase) Summary(ctx context.Context, ownerID string) (*Summary, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	now := uc.clock()

	s := &Summary{
		Year:           now.Year(),
		Month:          int(now.Month()),
		Balances:       Money{},
		OwedDebt:       Money{},
		CreditCardDebt: Money{},
		NetWorth:       Money{},
	}

	accounts, err := uc.accountRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		s.Balances.add(a.Currency, a.Balance)
		s.NetWorth.add(a.Currency, a.Balance)
	}

	debts, err := uc.debtRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, d := range debts {
		switch d.Kind() {
		case domain.DebtKindOwed:
			s.OwedDebt.add(d.Currency, d.Remaining())
		case domain.DebtKindCreditCard:
			s.CreditCardDebt.add(d.Currency, d.Remaining())
		default:
			continue
		}
		s.NetWorth.add(d.Currency, d.Remaining().Neg())
	}

	from, to := domain.PeriodBounds(s.Year, s.Month, time.UTC)
	txs, err := listAll(ctx, uc.transactionRepo, domain.TransactionFilter{OwnerID: ownerID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	spending := make(map[string]decimal.Decimal)
	for _, t := range txs {
		switch t.Type() {
		case domain.TypeIncome:
			s.MonthIncome = s.MonthIncome.Add(t.Amount)
		case domain.TypeExpense:
			s.MonthExpense = s.MonthExpense.Add(t.Amount)
			category := t.CategoryID
			if category == "" {
				category = uncategorized
			}
			spending[category] = spending[category].Add(t.Amount)
		}
	}
	s.CashFlow = s.MonthIncome.Sub(s.MonthExpense)
	s.SavingsRate = domain.Percent(s.CashFlow, s.MonthIncome)

	for id, amount := range spending {
		s.Spending = append(s.Spending, CategoryTotal{CategoryID: id, Amount: amount})
	}
	sort.Slice(s.Spending, func(i, j int) bool {
		if !s.Spending[i].Amount.Equal(s.Spending[j].Amount) {
			return s.Spending[i].Amount.GreaterThan(s.Spending[j].Amount)
		}
		return s.Spending[i].CategoryID < s.Spending[j].CategoryID
	})

	budget, err := uc.budgetRepo.Get(ctx, ownerID, s.Year, s.Month)
	switch {
	case errors.Is(err, domain.ErrBudgetNotFound):
	case err != nil:
		return nil, err
	case budget.TotalIncome.IsPositive():
		health := domain.Percent(s.MonthExpense, budget.TotalIncome)
		s.BudgetHealth = &health
	}

	return s, nil
}
