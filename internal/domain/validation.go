package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 500
	MaxPageSize          = 1000
	DefaultPageSize      = 50
)

func invalidField(format string, args ...any) error {
	return NewValidationError(KindInvalidField, fmt.Sprintf(format, args...))
}

// ValidateName checks a required display name.
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidField("%s is required", field)
	}
	if len(name) > MaxNameLength {
		return invalidField("%s exceeds %d characters", field, MaxNameLength)
	}
	return nil
}

// ValidateCurrency checks that c is supported.
func ValidateCurrency(c Currency) error {
	if !c.IsValid() {
		return invalidField("unsupported currency %q", string(c))
	}
	return nil
}

// ValidateAccount checks the account form rules.
func ValidateAccount(a *Account) error {
	if err := ValidateName("name", a.Name); err != nil {
		return err
	}
	if !a.Type.IsValid() {
		return invalidField("unknown account type %q", string(a.Type))
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		return err
	}
	if a.Balance.IsNegative() {
		return invalidField("balance cannot be negative")
	}
	return nil
}

// ValidateDebt checks the debt and credit card form rules.
func ValidateDebt(d *Debt) error {
	if err := ValidateName("name", d.Name); err != nil {
		return err
	}
	if err := ValidateCurrency(d.Currency); err != nil {
		return err
	}
	if d.IsLent && d.IsCreditCard {
		return invalidField("a debt cannot be both lent and a credit card")
	}
	if !d.TotalAmount.IsPositive() {
		return invalidField("total amount must be greater than 0")
	}
	if d.PaidAmount.IsNegative() {
		return invalidField("paid amount cannot be negative")
	}
	if !d.IsCreditCard && d.PaidAmount.GreaterThan(d.TotalAmount) {
		return invalidField("paid amount cannot exceed the total debt")
	}

	if err := validateDay("cutoff day", d.CutoffDay); err != nil {
		return err
	}
	if err := validateDay("payment day", d.PaymentDay); err != nil {
		return err
	}
	if d.LastFourDigits != "" && !isDigits(d.LastFourDigits, 4) {
		return invalidField("last four digits must be 4 numbers")
	}
	for _, v := range []*decimal.Decimal{d.CreditLimit, d.MinimumPayment, d.TotalPayment} {
		if v != nil && v.IsNegative() {
			return invalidField("credit card amounts cannot be negative")
		}
	}
	return nil
}

// ValidateGoal checks the savings goal form rules.
func ValidateGoal(g *Goal) error {
	if err := ValidateName("name", g.Name); err != nil {
		return err
	}
	if err := ValidateCurrency(g.Currency); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() {
		return invalidField("target amount must be greater than 0")
	}
	if g.CurrentAmount.IsNegative() {
		return invalidField("current amount cannot be negative")
	}
	return nil
}

// ValidateCategory checks a user-defined category.
func ValidateCategory(c *Category) error {
	if err := ValidateName("name", c.Name); err != nil {
		return err
	}
	if !c.Type.IsValid() {
		return invalidField("unknown category type %q", string(c.Type))
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validateDay(field string, day *int) error {
	if day != nil && (*day < 1 || *day > 31) {
		return invalidField("%s must be between 1 and 31", field)
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
