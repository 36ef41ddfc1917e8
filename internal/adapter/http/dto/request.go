package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Logo     string          `json:"logo,omitempty"`
	Icon     string          `json:"icon,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(ownerID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:  ownerID,
		Name:     r.Name,
		Type:     domain.AccountType(r.Type),
		Currency: domain.Currency(r.Currency),
		Balance:  r.Balance,
		Logo:     r.Logo,
		Icon:     r.Icon,
	}
}

// UpdateAccountRequest changes an account's profile. Omitted fields are kept.
type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty"`
	Type *string `json:"type,omitempty"`
	Logo *string `json:"logo,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput() usecase.UpdateAccountInput {
	in := usecase.UpdateAccountInput{Name: r.Name, Logo: r.Logo, Icon: r.Icon}
	if r.Type != nil {
		typ := domain.AccountType(*r.Type)
		in.Type = &typ
	}
	return in
}

// SetBalanceRequest overwrites an account balance.
type SetBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// CreateDebtRequest represents a request to create a debt, loan or credit card.
type CreateDebtRequest struct {
	Name           string           `json:"name"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	Currency       string           `json:"currency"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	IsLent         bool             `json:"is_lent"`
	IsCreditCard   bool             `json:"is_credit_card"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	CutoffDay      *int             `json:"cutoff_day,omitempty"`
	PaymentDay     *int             `json:"payment_day,omitempty"`
	LastFourDigits string           `json:"last_four_digits,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
	TotalPayment   *decimal.Decimal `json:"total_payment,omitempty"`
	Logo           string           `json:"logo,omitempty"`
	Icon           string           `json:"icon,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDebtRequest) ToUseCaseInput(ownerID string) usecase.CreateDebtInput {
	return usecase.CreateDebtInput{
		OwnerID:        ownerID,
		Name:           r.Name,
		TotalAmount:    r.TotalAmount,
		PaidAmount:     r.PaidAmount,
		Currency:       domain.Currency(r.Currency),
		DueDate:        r.DueDate,
		IsLent:         r.IsLent,
		IsCreditCard:   r.IsCreditCard,
		CreditLimit:    r.CreditLimit,
		CutoffDay:      r.CutoffDay,
		PaymentDay:     r.PaymentDay,
		LastFourDigits: r.LastFourDigits,
		MinimumPayment: r.MinimumPayment,
		TotalPayment:   r.TotalPayment,
		Logo:           r.Logo,
		Icon:           r.Icon,
	}
}

// UpdateDebtRequest changes a debt. Omitted fields are kept.
type UpdateDebtRequest struct {
	Name           *string          `json:"name,omitempty"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	CutoffDay      *int             `json:"cutoff_day,omitempty"`
	PaymentDay     *int             `json:"payment_day,omitempty"`
	LastFourDigits *string          `json:"last_four_digits,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
	TotalPayment   *decimal.Decimal `json:"total_payment,omitempty"`
	Logo           *string          `json:"logo,omitempty"`
	Icon           *string          `json:"icon,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateDebtRequest) ToUseCaseInput() usecase.UpdateDebtInput {
	return usecase.UpdateDebtInput{
		Name:           r.Name,
		TotalAmount:    r.TotalAmount,
		DueDate:        r.DueDate,
		CreditLimit:    r.CreditLimit,
		CutoffDay:      r.CutoffDay,
		PaymentDay:     r.PaymentDay,
		LastFourDigits: r.LastFourDigits,
		MinimumPayment: r.MinimumPayment,
		TotalPayment:   r.TotalPayment,
		Logo:           r.Logo,
		Icon:           r.Icon,
	}
}

// CreateGoalRequest represents a request to create a savings goal.
type CreateGoalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGoalRequest) ToUseCaseInput(ownerID string) usecase.CreateGoalInput {
	return usecase.CreateGoalInput{
		OwnerID:       ownerID,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Currency:      domain.Currency(r.Currency),
		Deadline:      r.Deadline,
	}
}

// UpdateGoalRequest changes a goal. Omitted fields are kept.
type UpdateGoalRequest struct {
	Name         *string          `json:"name,omitempty"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateGoalRequest) ToUseCaseInput() usecase.UpdateGoalInput {
	return usecase.UpdateGoalInput{Name: r.Name, TargetAmount: r.TargetAmount, Deadline: r.Deadline}
}

// TransactionRequest creates or replaces a transaction. Which reference
// fields are required depends on Type.
type TransactionRequest struct {
	Type          string           `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	Description   string           `json:"description,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	CategoryID    string           `json:"category_id,omitempty"`
	AccountID     string           `json:"account_id,omitempty"`
	FromAccountID string           `json:"from_account_id,omitempty"`
	ToAccountID   string           `json:"to_account_id,omitempty"`
	DebtID        string           `json:"debt_id,omitempty"`
	GoalID        string           `json:"goal_id,omitempty"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate,omitempty"`
}

// ToUseCaseInput converts to use case input. A missing date means now.
func (r *TransactionRequest) ToUseCaseInput(ownerID string, now time.Time) usecase.TransactionInput {
	date := now
	if r.Date != nil {
		date = *r.Date
	}
	return usecase.TransactionInput{
		OwnerID:       ownerID,
		Type:          domain.TransactionType(r.Type),
		Amount:        r.Amount,
		Description:   r.Description,
		Date:          date,
		CategoryID:    r.CategoryID,
		AccountID:     r.AccountID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		DebtID:        r.DebtID,
		GoalID:        r.GoalID,
		ExchangeRate:  r.ExchangeRate,
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	Type string `json:"type"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCategoryRequest) ToUseCaseInput(ownerID string) usecase.CreateCategoryInput {
	return usecase.CreateCategoryInput{
		OwnerID: ownerID,
		Name:    r.Name,
		Icon:    r.Icon,
		Type:    domain.CategoryType(r.Type),
	}
}

// SetBudgetRequest replaces a month's budget.
type SetBudgetRequest struct {
	TotalIncome    decimal.Decimal            `json:"total_income"`
	CategoryLimits map[string]decimal.Decimal `json:"category_limits"`
}

// ToUseCaseInput converts to use case input.
func (r *SetBudgetRequest) ToUseCaseInput(ownerID string, year, month int) usecase.SetBudgetInput {
	return usecase.SetBudgetInput{
		OwnerID:        ownerID,
		Year:           year,
		Month:          month,
		TotalIncome:    r.TotalIncome,
		CategoryLimits: r.CategoryLimits,
	}
}
