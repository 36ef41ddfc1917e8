package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is an owner's plan for one calendar month.
type Budget struct {
	ID             string
	OwnerID        string
	Month          int
	Year           int
	TotalIncome    decimal.Decimal
	CategoryLimits map[string]decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidatePeriod checks that month and year name a real month.
func ValidatePeriod(year, month int) error {
	if month < 1 || month > 12 || year < 1970 || year > 9999 {
		return ErrInvalidBudgetPeriod
	}
	return nil
}

// PeriodBounds returns the first instant of the month and of the next one.
func PeriodBounds(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// TotalLimits sums every category limit.
func (b *Budget) TotalLimits() decimal.Decimal {
	total := decimal.Zero
	for _, limit := range b.CategoryLimits {
		total = total.Add(limit)
	}
	return total
}

// CategorySpending is spending against one category's limit.
type CategorySpending struct {
	CategoryID string
	Limit      decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percent    decimal.Decimal
}

// BudgetStatus compares a budget against actual transactions for its month.
type BudgetStatus struct {
	Year          int
	Month         int
	TotalIncome   decimal.Decimal
	AverageIncome decimal.Decimal
	TotalLimits   decimal.Decimal
	TotalSpent    decimal.Decimal
	Remaining     decimal.Decimal
	Categories    []CategorySpending
}

// Percent returns part as a percentage of whole, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
