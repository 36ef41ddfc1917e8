package handler

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
)

func TestReportHandler_Summary(t *testing.T) {
	env := newTestEnv(t)
	a := createAccount(t, env, "Main", "PEN", "1000")
	createAccount(t, env, "Dollars", "USD", "200")

	rec := call(t, env.debts.Create, http.MethodPost, "/api/v1/debts", dto.CreateDebtRequest{
		Name: "Loan", TotalAmount: decimal.NewFromInt(300), Currency: "PEN",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, code := postTransaction(t, env, dto.TransactionRequest{
		Type: string(domain.TypeIncome), Amount: decimal.NewFromInt(500), Description: "salary", AccountID: a.ID,
	})
	require.Equal(t, http.StatusCreated, code)
	_, code = postTransaction(t, env, dto.TransactionRequest{
		Type: string(domain.TypeExpense), Amount: decimal.NewFromInt(100), Description: "rent", AccountID: a.ID,
	})
	require.Equal(t, http.StatusCreated, code)

	rec = call(t, env.reports.Summary, http.MethodGet, "/api/v1/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := decode[dto.SummaryResponse](t, rec)

	assert.True(t, decimal.NewFromInt(1400).Equal(s.Balances["PEN"]))
	assert.True(t, decimal.NewFromInt(200).Equal(s.Balances["USD"]))
	assert.True(t, decimal.NewFromInt(1100).Equal(s.NetWorth["PEN"]))
	assert.True(t, decimal.NewFromInt(400).Equal(s.CashFlow))
}
