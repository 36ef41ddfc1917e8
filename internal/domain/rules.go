package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidateTransaction checks tx against the loaded state. It never mutates
// either. A missing debt or goal is allowed; a missing account is not.
func ValidateTransaction(tx *Transaction, state *LedgerState, now time.Time) error {
	if !tx.Amount.IsPositive() {
		return NewValidationError(KindInvalidAmount, "amount must be greater than 0")
	}
	if isAfterDay(tx.Date, now) {
		return NewValidationError(KindFutureDate, "transactions cannot be dated in the future")
	}
	if strings.TrimSpace(tx.Description) == "" {
		return NewValidationError(KindMissingDescription, "description is required")
	}

	switch d := tx.Details.(type) {
	case Income:
		_, err := requireAccount(state, d.AccountID, "account")
		return err
	case Expense:
		return requireFunds(state, d.AccountID, tx)
	case Transfer:
		return validateTransfer(d, state, tx)
	case DebtPayment:
		if err := requireFunds(state, d.AccountID, tx); err != nil {
			return err
		}
		return validateDebtPayment(state, d.DebtID, DebtKindOwed, tx)
	case CreditCardPayment:
		if err := requireFunds(state, d.AccountID, tx); err != nil {
			return err
		}
		return validateDebtPayment(state, d.DebtID, DebtKindCreditCard, tx)
	case GoalContribution:
		if err := requireFunds(state, d.AccountID, tx); err != nil {
			return err
		}
		return validateGoalContribution(state, d.GoalID, tx)
	case LoanCollection:
		if _, err := requireAccount(state, d.AccountID, "account"); err != nil {
			return err
		}
		return validateDebtPayment(state, d.DebtID, DebtKindLent, tx)
	}

	return NewValidationError(KindInvalidField, "unknown transaction type")
}

// NormalizeTransfer fills transfer currencies from the loaded accounts and
// drops an exchange rate supplied for a same-currency transfer.
func NormalizeTransfer(tx *Transaction, state *LedgerState) {
	tr, ok := tx.Details.(Transfer)
	if !ok {
		return
	}
	if from, ok := state.Accounts[tr.FromAccountID]; ok {
		tr.FromCurrency = from.Currency
	}
	if to, ok := state.Accounts[tr.ToAccountID]; ok {
		tr.ToCurrency = to.Currency
	}
	if !tr.IsCrossCurrency() {
		tr.ExchangeRate = nil
	}
	tx.Details = tr
}

func validateTransfer(tr Transfer, state *LedgerState, tx *Transaction) error {
	if tr.FromAccountID == "" {
		return NewValidationError(KindAccountNotFound, "source account is required")
	}
	if tr.FromAccountID == tr.ToAccountID {
		return NewValidationError(KindSameAccount, "cannot transfer to the same account")
	}

	from, err := requireAccount(state, tr.FromAccountID, "source account")
	if err != nil {
		return err
	}
	to, err := requireAccount(state, tr.ToAccountID, "destination account")
	if err != nil {
		return err
	}
	if err := checkFunds(from, tx); err != nil {
		return err
	}

	if from.Currency != to.Currency && (tr.ExchangeRate == nil || !tr.ExchangeRate.IsPositive()) {
		return NewValidationError(KindMissingExchangeRate,
			"an exchange rate is required for transfers between different currencies")
	}
	return nil
}

func validateDebtPayment(state *LedgerState, debtID string, want DebtKind, tx *Transaction) error {
	debt, ok := state.Debts[debtID]
	if !ok {
		return nil
	}

	if debt.Kind() != want {
		return NewValidationError(KindDebtKindMismatch,
			fmt.Sprintf("%s is not a %s debt", debt.Name, strings.ToLower(string(want))))
	}

	remaining := debt.Remaining()
	if !remaining.IsPositive() {
		return NewValidationError(KindDebtSettled, fmt.Sprintf("%s is already fully paid", debt.Name))
	}
	if tx.Amount.GreaterThan(remaining) {
		return NewValidationError(KindExceedsRemainingDebt,
			fmt.Sprintf("amount exceeds the remaining %s of %s", debt.Currency.Format(remaining), debt.Name))
	}
	return nil
}

func validateGoalContribution(state *LedgerState, goalID string, tx *Transaction) error {
	goal, ok := state.Goals[goalID]
	if !ok {
		return nil
	}

	remaining := goal.Remaining()
	if !remaining.IsPositive() {
		return NewValidationError(KindGoalReached, fmt.Sprintf("goal %s has already been reached", goal.Name))
	}
	if tx.Amount.GreaterThan(remaining) {
		return NewValidationError(KindExceedsRemainingGoal,
			fmt.Sprintf("amount exceeds the remaining %s for %s", goal.Currency.Format(remaining), goal.Name))
	}
	return nil
}

func requireAccount(state *LedgerState, id, label string) (*Account, error) {
	if id == "" {
		return nil, NewValidationError(KindAccountNotFound, label+" is required")
	}
	a, ok := state.Accounts[id]
	if !ok {
		return nil, NewValidationError(KindAccountNotFound, "the selected "+label+" does not exist")
	}
	return a, nil
}

func requireFunds(state *LedgerState, id string, tx *Transaction) error {
	a, err := requireAccount(state, id, "account")
	if err != nil {
		return err
	}
	return checkFunds(a, tx)
}

func checkFunds(a *Account, tx *Transaction) error {
	if a.CanDebit(tx.Amount) {
		return nil
	}
	return NewValidationError(KindInsufficientBalance,
		fmt.Sprintf("insufficient balance in %s, available %s", a.Name, a.Currency.Format(a.Balance)))
}

// isAfterDay reports whether date falls on a calendar day after now's.
func isAfterDay(date, now time.Time) bool {
	y1, m1, d1 := date.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 > d2
}
