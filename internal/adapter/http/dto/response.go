package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Logo      string          `json:"logo,omitempty"`
	Icon      string          `json:"icon,omitempty"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  string(a.Currency),
		Balance:   a.Balance,
		Logo:      a.Logo,
		Icon:      a.Icon,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	return mapAll(accounts, AccountFromDomain)
}

// DebtResponse represents a debt, loan or credit card.
type DebtResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Kind           string           `json:"kind"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	Remaining      decimal.Decimal  `json:"remaining"`
	Currency       string           `json:"currency"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	CutoffDay      *int             `json:"cutoff_day,omitempty"`
	PaymentDay     *int             `json:"payment_day,omitempty"`
	LastFourDigits string           `json:"last_four_digits,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
	TotalPayment   *decimal.Decimal `json:"total_payment,omitempty"`
	Logo           string           `json:"logo,omitempty"`
	Icon           string           `json:"icon,omitempty"`
	Version        int64            `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// DebtFromDomain converts domain debt to response.
func DebtFromDomain(d *domain.Debt) *DebtResponse {
	return &DebtResponse{
		ID:             d.ID,
		Name:           d.Name,
		Kind:           string(d.Kind()),
		TotalAmount:    d.TotalAmount,
		PaidAmount:     d.PaidAmount,
		Remaining:      d.Remaining(),
		Currency:       string(d.Currency),
		DueDate:        d.DueDate,
		CreditLimit:    d.CreditLimit,
		CutoffDay:      d.CutoffDay,
		PaymentDay:     d.PaymentDay,
		LastFourDigits: d.LastFourDigits,
		MinimumPayment: d.MinimumPayment,
		TotalPayment:   d.TotalPayment,
		Logo:           d.Logo,
		Icon:           d.Icon,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DebtsFromDomain converts domain debts to responses.
func DebtsFromDomain(debts []*domain.Debt) []*DebtResponse {
	return mapAll(debts, DebtFromDomain)
}

// CreditCardStatusResponse describes credit card usage.
type CreditCardStatusResponse struct {
	DebtID          string          `json:"debt_id"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCredit      decimal.Decimal `json:"used_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	UsagePercent    decimal.Decimal `json:"usage_percent"`
	NextDate        *time.Time      `json:"next_date,omitempty"`
	DaysUntil       *int            `json:"days_until,omitempty"`
	Alert           string          `json:"alert,omitempty"`
}

// CreditCardStatusesFromDomain converts card statuses to responses.
func CreditCardStatusesFromDomain(statuses []domain.CreditCardStatus) []*CreditCardStatusResponse {
	result := make([]*CreditCardStatusResponse, len(statuses))
	for i, s := range statuses {
		result[i] = &CreditCardStatusResponse{
			DebtID:          s.DebtID,
			Name:            s.Name,
			Currency:        string(s.Currency),
			CreditLimit:     s.CreditLimit,
			UsedCredit:      s.UsedCredit,
			AvailableCredit: s.AvailableCredit,
			UsagePercent:    s.UsagePercent,
			NextDate:        s.NextDate,
			DaysUntil:       s.DaysUntil,
			Alert:           s.Alert,
		}
	}
	return result
}

// GoalResponse represents a savings goal.
type GoalResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Remaining     decimal.Decimal `json:"remaining"`
	Progress      decimal.Decimal `json:"progress"`
	Currency      string          `json:"currency"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GoalFromDomain converts domain goal to response.
func GoalFromDomain(g *domain.Goal) *GoalResponse {
	return &GoalResponse{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Remaining:     g.Remaining(),
		Progress:      g.Progress(),
		Currency:      string(g.Currency),
		Deadline:      g.Deadline,
		Version:       g.Version,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

// GoalsFromDomain converts domain goals to responses.
func GoalsFromDomain(goals []*domain.Goal) []*GoalResponse {
	return mapAll(goals, GoalFromDomain)
}

// TransactionResponse represents a ledger transaction. Only the reference
// fields of its type are set.
type TransactionResponse struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	Description   string           `json:"description,omitempty"`
	Date          time.Time        `json:"date"`
	CategoryID    string           `json:"category_id,omitempty"`
	AccountID     string           `json:"account_id,omitempty"`
	FromAccountID string           `json:"from_account_id,omitempty"`
	ToAccountID   string           `json:"to_account_id,omitempty"`
	DebtID        string           `json:"debt_id,omitempty"`
	GoalID        string           `json:"goal_id,omitempty"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate,omitempty"`
	FromCurrency  string           `json:"from_currency,omitempty"`
	ToCurrency    string           `json:"to_currency,omitempty"`
	Version       int64            `json:"version"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:          t.ID,
		Type:        string(t.Type()),
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
		CategoryID:  t.CategoryID,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}

	switch d := t.Details.(type) {
	case domain.Income:
		resp.AccountID = d.AccountID
	case domain.Expense:
		resp.AccountID = d.AccountID
	case domain.Transfer:
		resp.FromAccountID = d.FromAccountID
		resp.ToAccountID = d.ToAccountID
		resp.ExchangeRate = d.ExchangeRate
		resp.FromCurrency = string(d.FromCurrency)
		resp.ToCurrency = string(d.ToCurrency)
	case domain.DebtPayment:
		resp.AccountID, resp.DebtID = d.AccountID, d.DebtID
	case domain.CreditCardPayment:
		resp.AccountID, resp.DebtID = d.AccountID, d.DebtID
	case domain.GoalContribution:
		resp.AccountID, resp.GoalID = d.AccountID, d.GoalID
	case domain.LoanCollection:
		resp.AccountID, resp.DebtID = d.AccountID, d.DebtID
	}
	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	return mapAll(txs, TransactionFromDomain)
}

// MutationResponse reports a transaction mutation and the records it changed.
type MutationResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Accounts    []*AccountResponse   `json:"accounts"`
	Debts       []*DebtResponse      `json:"debts"`
	Goals       []*GoalResponse      `json:"goals"`
	Orphaned    []string             `json:"orphaned,omitempty"`
}

// MutationFromResult converts a mutation result to response.
func MutationFromResult(r *usecase.MutationResult) *MutationResponse {
	resp := &MutationResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Accounts:    AccountsFromDomain(r.Accounts),
		Debts:       DebtsFromDomain(r.Debts),
		Goals:       GoalsFromDomain(r.Goals),
	}
	for _, d := range r.Orphaned {
		resp.Orphaned = append(resp.Orphaned, d.Target.String())
	}
	return resp
}

// WeekResponse is one week of account history.
type WeekResponse struct {
	Start        time.Time              `json:"start"`
	End          time.Time              `json:"end"`
	Total        decimal.Decimal        `json:"total"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// HistoryFromWeeks converts weekly groups to responses.
func HistoryFromWeeks(weeks []*usecase.WeekGroup) []*WeekResponse {
	return mapAll(weeks, func(w *usecase.WeekGroup) *WeekResponse {
		return &WeekResponse{
			Start:        w.Start,
			End:          w.End,
			Total:        w.Total,
			Transactions: TransactionsFromDomain(w.Transactions),
		}
	})
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Type     string `json:"type"`
	IsSystem bool   `json:"is_system"`
}

// CategoryFromDomain converts a domain category to a response.
func CategoryFromDomain(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, Type: string(c.Type), IsSystem: c.IsSystem}
}

// CategoriesFromDomain converts domain categories to responses.
func CategoriesFromDomain(categories []*domain.Category) []*CategoryResponse {
	return mapAll(categories, CategoryFromDomain)
}

// BudgetResponse represents a monthly budget.
type BudgetResponse struct {
	ID             string                     `json:"id"`
	Year           int                        `json:"year"`
	Month          int                        `json:"month"`
	TotalIncome    decimal.Decimal            `json:"total_income"`
	CategoryLimits map[string]decimal.Decimal `json:"category_limits"`
	TotalLimits    decimal.Decimal            `json:"total_limits"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// BudgetFromDomain converts domain budget to response.
func BudgetFromDomain(b *domain.Budget) *BudgetResponse {
	return &BudgetResponse{
		ID:             b.ID,
		Year:           b.Year,
		Month:          b.Month,
		TotalIncome:    b.TotalIncome,
		CategoryLimits: b.CategoryLimits,
		TotalLimits:    b.TotalLimits(),
		UpdatedAt:      b.UpdatedAt,
	}
}

// CategorySpendingResponse is spending against one category limit.
type CategorySpendingResponse struct {
	CategoryID string          `json:"category_id"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percent    decimal.Decimal `json:"percent"`
}

// BudgetStatusResponse compares a budget with actual spending.
type BudgetStatusResponse struct {
	Year          int                         `json:"year"`
	Month         int                         `json:"month"`
	TotalIncome   decimal.Decimal             `json:"total_income"`
	AverageIncome decimal.Decimal             `json:"average_income"`
	TotalLimits   decimal.Decimal             `json:"total_limits"`
	TotalSpent    decimal.Decimal             `json:"total_spent"`
	Remaining     decimal.Decimal             `json:"remaining"`
	Categories    []*CategorySpendingResponse `json:"categories"`
}

// BudgetStatusFromDomain converts a budget status to response.
func BudgetStatusFromDomain(s *domain.BudgetStatus) *BudgetStatusResponse {
	resp := &BudgetStatusResponse{
		Year:          s.Year,
		Month:         s.Month,
		TotalIncome:   s.TotalIncome,
		AverageIncome: s.AverageIncome,
		TotalLimits:   s.TotalLimits,
		TotalSpent:    s.TotalSpent,
		Remaining:     s.Remaining,
		Categories:    make([]*CategorySpendingResponse, len(s.Categories)),
	}
	for i, c := range s.Categories {
		resp.Categories[i] = &CategorySpendingResponse{
			CategoryID: c.CategoryID,
			Limit:      c.Limit,
			Spent:      c.Spent,
			Remaining:  c.Remaining,
			Percent:    c.Percent,
		}
	}
	return resp
}

// SummaryResponse is the dashboard summary.
type SummaryResponse struct {
	Year           int                        `json:"year"`
	Month          int                        `json:"month"`
	Balances       map[string]decimal.Decimal `json:"balances"`
	OwedDebt       map[string]decimal.Decimal `json:"owed_debt"`
	CreditCardDebt map[string]decimal.Decimal `json:"credit_card_debt"`
	NetWorth       map[string]decimal.Decimal `json:"net_worth"`
	MonthIncome    decimal.Decimal            `json:"month_income"`
	MonthExpense   decimal.Decimal            `json:"month_expense"`
	CashFlow       decimal.Decimal            `json:"cash_flow"`
	SavingsRate    decimal.Decimal            `json:"savings_rate"`
	Spending       []CategoryAmount           `json:"spending"`
	BudgetHealth   *decimal.Decimal           `json:"budget_health,omitempty"`
}

// CategoryAmount is a total for one category.
type CategoryAmount struct {
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// SummaryFromUseCase converts a summary to response.
func SummaryFromUseCase(s *usecase.Summary) *SummaryResponse {
	resp := &SummaryResponse{
		Year:           s.Year,
		Month:          s.Month,
		Balances:       money(s.Balances),
		OwedDebt:       money(s.OwedDebt),
		CreditCardDebt: money(s.CreditCardDebt),
		NetWorth:       money(s.NetWorth),
		MonthIncome:    s.MonthIncome,
		MonthExpense:   s.MonthExpense,
		CashFlow:       s.CashFlow,
		SavingsRate:    s.SavingsRate,
		Spending:       make([]CategoryAmount, len(s.Spending)),
		BudgetHealth:   s.BudgetHealth,
	}
	for i, c := range s.Spending {
		resp.Spending[i] = CategoryAmount{CategoryID: c.CategoryID, Amount: c.Amount}
	}
	return resp
}

func money(m usecase.Money) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for c, v := range m {
		out[string(c)] = v
	}
	return out
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse wraps items.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func mapAll[S, D any](in []S, fn func(S) D) []D {
	out := make([]D, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
