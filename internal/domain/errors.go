package domain

import "errors"

var (
	// Lookup errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrDebtNotFound        = errors.New("debt not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrBudgetNotFound      = errors.New("budget not found")

	// Mutation errors
	ErrAccountInUse         = errors.New("account is referenced by transactions")
	ErrVersionConflict      = errors.New("record was modified concurrently")
	ErrSystemCategory       = errors.New("system categories cannot be modified")
	ErrUnknownTransaction   = errors.New("unknown transaction type")
	ErrOwnerRequired        = errors.New("owner id is required")
	ErrInvalidBudgetPeriod  = errors.New("invalid budget period")
	ErrInvalidCategoryLimit = errors.New("category limit must not be negative")
)

// ValidationKind classifies a user-correctable rejection.
type ValidationKind string

const (
	KindInvalidAmount        ValidationKind = "invalid_amount"
	KindFutureDate           ValidationKind = "future_date"
	KindMissingDescription   ValidationKind = "missing_description"
	KindAccountNotFound      ValidationKind = "account_not_found"
	KindInsufficientBalance  ValidationKind = "insufficient_balance"
	KindSameAccount          ValidationKind = "same_account"
	KindMissingExchangeRate  ValidationKind = "missing_exchange_rate"
	KindDebtKindMismatch     ValidationKind = "debt_kind_mismatch"
	KindDebtSettled          ValidationKind = "debt_settled"
	KindExceedsRemainingDebt ValidationKind = "exceeds_remaining_debt"
	KindGoalReached          ValidationKind = "goal_reached"
	KindExceedsRemainingGoal ValidationKind = "exceeds_remaining_goal"
	KindInvalidField         ValidationKind = "invalid_field"
)

// ValidationError is a rejection the user can fix. Message is shown verbatim.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError.
func NewValidationError(kind ValidationKind, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
