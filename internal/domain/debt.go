package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DebtKind distinguishes the three shapes sharing the Debt record.
type DebtKind string

const (
	DebtKindOwed       DebtKind = "OWED"
	DebtKindLent       DebtKind = "LENT"
	DebtKindCreditCard DebtKind = "CREDIT_CARD"
)

// Debt is money owed, money lent out, or a credit card balance.
type Debt struct {
	ID             string
	OwnerID        string
	Name           string
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	Currency       Currency
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
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Kind returns which variant the record represents.
func (d *Debt) Kind() DebtKind {
	switch {
	case d.IsCreditCard:
		return DebtKindCreditCard
	case d.IsLent:
		return DebtKindLent
	default:
		return DebtKindOwed
	}
}

// Remaining is the amount still outstanding.
func (d *Debt) Remaining() decimal.Decimal {
	return d.TotalAmount.Sub(d.PaidAmount)
}

// ApplyPayment returns PaidAmount after adding delta, never below zero.
func (d *Debt) ApplyPayment(delta decimal.Decimal) decimal.Decimal {
	return clampZero(d.PaidAmount.Add(delta))
}

// Clone returns a copy safe to mutate.
func (d *Debt) Clone() *Debt {
	c := *d
	return &c
}

// Credit card alert levels, ordered by urgency.
const (
	AlertNone     = ""
	AlertNotice   = "notice"
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// CreditCardStatus describes usage of a credit card and its next statement date.
type CreditCardStatus struct {
	DebtID          string
	Name            string
	Currency        Currency
	CreditLimit     decimal.Decimal
	UsedCredit      decimal.Decimal
	AvailableCredit decimal.Decimal
	UsagePercent    decimal.Decimal
	NextDate        *time.Time
	DaysUntil       *int
	Alert           string
}

// CreditCardStatus reports usage and the upcoming cutoff (or payment) date as of now.
// The limit falls back to TotalAmount when none is set.
func (d *Debt) CreditCardStatus(now time.Time) CreditCardStatus {
	limit := d.TotalAmount
	if d.CreditLimit != nil && d.CreditLimit.IsPositive() {
		limit = *d.CreditLimit
	}

	used := d.Remaining()
	status := CreditCardStatus{
		DebtID:          d.ID,
		Name:            d.Name,
		Currency:        d.Currency,
		CreditLimit:     limit,
		UsedCredit:      used,
		AvailableCredit: limit.Sub(used),
	}
	if limit.IsPositive() {
		status.UsagePercent = used.Div(limit).Mul(decimal.NewFromInt(100)).Round(2)
	}

	day := d.CutoffDay
	if day == nil {
		day = d.PaymentDay
	}
	if day == nil {
		return status
	}

	next := nextMonthlyDate(now, *day)
	days := int(math.Ceil(next.Sub(now).Hours() / 24))
	status.NextDate = &next
	status.DaysUntil = &days

	switch {
	case days <= 3:
		status.Alert = AlertCritical
	case days <= 7:
		status.Alert = AlertWarning
	case days <= 14:
		status.Alert = AlertNotice
	}

	return status
}

// nextMonthlyDate returns this month's occurrence of day, or next month's if it has passed.
// Days past the end of a month roll over the way time.Date normalizes them.
func nextMonthlyDate(now time.Time, day int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
	if candidate.Before(now) {
		candidate = time.Date(now.Year(), now.Month()+1, day, 0, 0, 0, 0, now.Location())
	}
	return candidate
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
