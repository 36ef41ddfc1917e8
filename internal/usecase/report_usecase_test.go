package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/repository/memory"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

func TestReportUseCase_Summary(t *testing.T) {
	f := newFixture()
	budgets := memory.NewBudgetRepository(f.store)
	ctx := context.Background()
	now := time.Now().UTC()

	f.account(t, "pen", domain.CurrencyPEN, "1000")
	f.account(t, "usd", domain.CurrencyUSD, "50")
	f.debt(t, &domain.Debt{ID: "owed", Name: "Loan", TotalAmount: dec("300"), PaidAmount: dec("100")})
	f.debt(t, &domain.Debt{ID: "card", Name: "Visa", TotalAmount: dec("500"), IsCreditCard: true})
	f.debt(t, &domain.Debt{ID: "lent", Name: "To Ana", TotalAmount: dec("1000"), IsLent: true})
	usdCard := &domain.Debt{ID: "usd-card", Name: "Amex", TotalAmount: dec("20"), IsCreditCard: true, OwnerID: owner, Currency: domain.CurrencyUSD}
	require.NoError(t, f.debts.Create(ctx, nil, usdCard))

	seedTransactions(t, f.txs,
		&domain.Transaction{Amount: dec("800"), Date: now, Details: domain.Income{AccountID: "pen"}},
		&domain.Transaction{Amount: dec("200"), Date: now, CategoryID: "food", Details: domain.Expense{AccountID: "pen"}},
		&domain.Transaction{Amount: dec("50"), Date: now, CategoryID: "bills", Details: domain.Expense{AccountID: "pen"}},
		&domain.Transaction{Amount: dec("70"), Date: now, Details: domain.Transfer{FromAccountID: "pen", ToAccountID: "usd"}},
		&domain.Transaction{Amount: dec("400"), Date: now.AddDate(0, -2, 0), Details: domain.Expense{AccountID: "pen"}},
	)

	uc := usecase.NewReportUseCase(f.accounts, f.debts, f.txs, budgets)

	s, err := uc.Summary(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, s.BudgetHealth)

	assertDecimal(t, "1000", s.Balances[domain.CurrencyPEN])
	assertDecimal(t, "50", s.Balances[domain.CurrencyUSD])
	assertDecimal(t, "200", s.OwedDebt[domain.CurrencyPEN])
	assertDecimal(t, "500", s.CreditCardDebt[domain.CurrencyPEN])
	assertDecimal(t, "20", s.CreditCardDebt[domain.CurrencyUSD])
	assertDecimal(t, "300", s.NetWorth[domain.CurrencyPEN])
	assertDecimal(t, "30", s.NetWorth[domain.CurrencyUSD])

	assertDecimal(t, "800", s.MonthIncome)
	assertDecimal(t, "250", s.MonthExpense)
	assertDecimal(t, "550", s.CashFlow)
	assertDecimal(t, "68.75", s.SavingsRate)
	require.Len(t, s.Spending, 2)
	assert.Equal(t, "food", s.Spending[0].CategoryID)
	assert.Equal(t, "bills", s.Spending[1].CategoryID)

	require.NoError(t, budgets.Upsert(ctx, &domain.Budget{
		ID: "b", OwnerID: owner, Year: now.Year(), Month: int(now.Month()), TotalIncome: dec("1000"),
	}))
	s, err = uc.Summary(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, s.BudgetHealth)
	assertDecimal(t, "25", *s.BudgetHealth)

	_, err = uc.Summary(ctx, "")
	assert.ErrorIs(t, err, domain.ErrOwnerRequired)
}
