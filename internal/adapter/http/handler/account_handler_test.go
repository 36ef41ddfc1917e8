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

func createAccount(t *testing.T, env *testEnv, name, currency, balance string) *dto.AccountResponse {
	t.Helper()
	rec := call(t, env.accounts.Create, http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		Name:     name,
		Type:     string(domain.AccountTypeBank),
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*dto.AccountResponse](t, rec)
}

func TestAccountHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	created := createAccount(t, env, "Savings", "PEN", "150.50")
	assert.NotEmpty(t, created.ID)
	assert.True(t, decimal.RequireFromString("150.50").Equal(created.Balance))

	rec := call(t, env.accounts.Get, http.MethodGet, "/api/v1/accounts/"+created.ID, nil, id(created.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Savings", decode[dto.AccountResponse](t, rec).Name)

	rec = call(t, env.accounts.Get, http.MethodGet, "/api/v1/accounts/missing", nil, id("missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountHandler_CreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	rec := call(t, env.accounts.Create, http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		Name: "Euro", Type: string(domain.AccountTypeBank), Currency: "EUR",
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.KindInvalidField), decode[dto.ErrorResponse](t, rec).Kind)

	rec = call(t, env.accounts.Create, http.MethodPost, "/api/v1/accounts", "not an object", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountHandler_ListUpdateSetBalance(t *testing.T) {
	env := newTestEnv(t)
	a := createAccount(t, env, "Main", "PEN", "10")
	createAccount(t, env, "Dollars", "USD", "0")

	rec := call(t, env.accounts.List, http.MethodGet, "/api/v1/accounts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListResponse[*dto.AccountResponse]](t, rec)
	assert.Equal(t, 2, list.Total)

	name := "Renamed"
	rec = call(t, env.accounts.Update, http.MethodPatch, "/api/v1/accounts/"+a.ID, dto.UpdateAccountRequest{Name: &name}, id(a.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode[dto.AccountResponse](t, rec).Name)

	rec = call(t, env.accounts.SetBalance, http.MethodPut, "/api/v1/accounts/"+a.ID+"/balance",
		dto.SetBalanceRequest{Balance: decimal.RequireFromString("99")}, id(a.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decimal.NewFromInt(99).Equal(decode[dto.AccountResponse](t, rec).Balance))
}

func TestAccountHandler_DeleteInUse(t *testing.T) {
	env := newTestEnv(t)
	a := createAccount(t, env, "Main", "PEN", "100")

	rec := call(t, env.transactions.Create, http.MethodPost, "/api/v1/transactions", dto.TransactionRequest{
		Type: string(domain.TypeExpense), Amount: decimal.NewFromInt(20), Description: "lunch", AccountID: a.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, env.accounts.Delete, http.MethodDelete, "/api/v1/accounts/"+a.ID, nil, id(a.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	b := createAccount(t, env, "Unused", "PEN", "0")
	rec = call(t, env.accounts.Delete, http.MethodDelete, "/api/v1/accounts/"+b.ID, nil, id(b.ID))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAccountHandler_History(t *testing.T) {
	env := newTestEnv(t)
	a := createAccount(t, env, "Main", "PEN", "100")

	rec := call(t, env.transactions.Create, http.MethodPost, "/api/v1/transactions", dto.TransactionRequest{
		Type: string(domain.TypeIncome), Amount: decimal.NewFromInt(50), Description: "salary", AccountID: a.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, env.accounts.History, http.MethodGet, "/api/v1/accounts/"+a.ID+"/history", nil, id(a.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	weeks := decode[dto.ListResponse[*dto.WeekResponse]](t, rec)
	require.Equal(t, 1, weeks.Total)
	assert.True(t, decimal.NewFromInt(50).Equal(weeks.Items[0].Total))
}
