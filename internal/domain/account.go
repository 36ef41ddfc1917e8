package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is where the money is kept.
type AccountType string

const (
	AccountTypeBank   AccountType = "BANK"
	AccountTypeWallet AccountType = "WALLET"
	AccountTypeCash   AccountType = "CASH"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeBank, AccountTypeWallet, AccountTypeCash:
		return true
	}
	return false
}

// Account holds spendable funds in a single currency.
type Account struct {
	ID        string
	OwnerID   string
	Name      string
	Type      AccountType
	Currency  Currency
	Balance   decimal.Decimal
	Logo      string
	Icon      string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanDebit reports whether the balance covers amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDelta returns the balance after adding delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}

// Clone returns a copy safe to mutate.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
