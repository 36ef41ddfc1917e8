package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the wire name of a transaction variant.
type TransactionType string

const (
	TypeIncome             TransactionType = "INCOME"
	TypeExpense            TransactionType = "EXPENSE"
	TypeTransfer           TransactionType = "TRANSFER"
	TypePayDebt            TransactionType = "PAY_DEBT"
	TypePayCreditCard      TransactionType = "PAY_CREDIT_CARD"
	TypeSaveForGoal        TransactionType = "SAVE_FOR_GOAL"
	TypeReceiveDebtPayment TransactionType = "RECEIVE_DEBT_PAYMENT"
)

// TransactionTypes lists every supported variant.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		TypeIncome, TypeExpense, TypeTransfer, TypePayDebt,
		TypePayCreditCard, TypeSaveForGoal, TypeReceiveDebtPayment,
	}
}

// IsValid reports whether t names a known variant.
func (t TransactionType) IsValid() bool {
	for _, known := range TransactionTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Details is the type-specific part of a Transaction. The set of
// implementations is closed.
type Details interface {
	Type() TransactionType
	details()
}

// Income credits an account.
type Income struct {
	AccountID string
}

// Expense debits an account.
type Expense struct {
	AccountID string
}

// Transfer moves money between two accounts, converting when the
// currencies differ.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
	ExchangeRate  *decimal.Decimal
	FromCurrency  Currency
	ToCurrency    Currency
}

// DebtPayment pays down an owed debt.
type DebtPayment struct {
	AccountID string
	DebtID    string
}

// CreditCardPayment pays down a credit card balance.
type CreditCardPayment struct {
	AccountID string
	DebtID    string
}

// GoalContribution moves money from an account into a savings goal.
type GoalContribution struct {
	AccountID string
	GoalID    string
}

// LoanCollection receives repayment of money lent out.
type LoanCollection struct {
	AccountID string
	DebtID    string
}

func (Income) Type() TransactionType            { return TypeIncome }
func (Expense) Type() TransactionType           { return TypeExpense }
func (Transfer) Type() TransactionType          { return TypeTransfer }
func (DebtPayment) Type() TransactionType       { return TypePayDebt }
func (CreditCardPayment) Type() TransactionType { return TypePayCreditCard }
func (GoalContribution) Type() TransactionType  { return TypeSaveForGoal }
func (LoanCollection) Type() TransactionType    { return TypeReceiveDebtPayment }

func (Income) details()            {}
func (Expense) details()           {}
func (Transfer) details()          {}
func (DebtPayment) details()       {}
func (CreditCardPayment) details() {}
func (GoalContribution) details()  {}
func (LoanCollection) details()    {}

// IsCrossCurrency reports whether the transfer converts between currencies.
func (t Transfer) IsCrossCurrency() bool {
	return t.FromCurrency != "" && t.ToCurrency != "" && t.FromCurrency != t.ToCurrency
}

// Transaction is one user-visible money movement.
type Transaction struct {
	ID          string
	OwnerID     string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	CategoryID  string
	Details     Details
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Type returns the variant name, or "" when Details is unset.
func (t *Transaction) Type() TransactionType {
	if t.Details == nil {
		return ""
	}
	return t.Details.Type()
}

// ConvertedAmount is Amount times the exchange rate when the transaction is a
// transfer carrying one, otherwise Amount.
func (t *Transaction) ConvertedAmount() decimal.Decimal {
	if tr, ok := t.Details.(Transfer); ok && tr.ExchangeRate != nil {
		return t.Amount.Mul(*tr.ExchangeRate)
	}
	return t.Amount
}

// References lists the records the transaction points at.
type References struct {
	AccountIDs []string
	DebtID     string
	GoalID     string
}

// References returns the account, debt and goal ids the transaction touches.
func (t *Transaction) References() References {
	switch d := t.Details.(type) {
	case Income:
		return References{AccountIDs: []string{d.AccountID}}
	case Expense:
		return References{AccountIDs: []string{d.AccountID}}
	case Transfer:
		return References{AccountIDs: []string{d.FromAccountID, d.ToAccountID}}
	case DebtPayment:
		return References{AccountIDs: []string{d.AccountID}, DebtID: d.DebtID}
	case CreditCardPayment:
		return References{AccountIDs: []string{d.AccountID}, DebtID: d.DebtID}
	case GoalContribution:
		return References{AccountIDs: []string{d.AccountID}, GoalID: d.GoalID}
	case LoanCollection:
		return References{AccountIDs: []string{d.AccountID}, DebtID: d.DebtID}
	}
	return References{}
}

// Touches reports whether the transaction references accountID.
func (t *Transaction) Touches(accountID string) bool {
	for _, id := range t.References().AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// IsIncoming reports whether money flows into accountID.
func (t *Transaction) IsIncoming(accountID string) bool {
	switch d := t.Details.(type) {
	case Income:
		return d.AccountID == accountID
	case LoanCollection:
		return d.AccountID == accountID
	case Transfer:
		return d.ToAccountID == accountID
	}
	return false
}

// Clone returns a copy safe to mutate.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if tr, ok := c.Details.(Transfer); ok && tr.ExchangeRate != nil {
		rate := *tr.ExchangeRate
		tr.ExchangeRate = &rate
		c.Details = tr
	}
	return &c
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	OwnerID   string
	AccountID string
	From      *time.Time
	To        *time.Time
	Type      TransactionType
	Limit     int
	Offset    int
}
