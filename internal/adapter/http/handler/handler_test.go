package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gofinance/internal/adapter/repository/postgres"
	"github.com/iho/gofinance/internal/infrastructure/idgen"
	"github.com/iho/gofinance/internal/usecase"
)

const testOwner = "user-1"

// testEnv wires every handler to real use cases over the in-memory store.
type testEnv struct {
	store        *memory.Store
	accounts     *AccountHandler
	debts        *DebtHandler
	goals        *GoalHandler
	transactions *TransactionHandler
	categories   *CategoryHandler
	budgets      *BudgetHandler
	reports      *ReportHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	accountRepo := memory.NewAccountRepository(store)
	debtRepo := memory.NewDebtRepository(store)
	goalRepo := memory.NewGoalRepository(store)
	txRepo := memory.NewTransactionRepository(store)
	categoryRepo := memory.NewCategoryRepository(store)
	budgetRepo := memory.NewBudgetRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)
	ids := idgen.NewULIDGenerator()
	logger := zerolog.Nop()

	return &testEnv{
		store:    store,
		accounts: NewAccountHandler(usecase.NewAccountUseCase(accountRepo, txRepo, ids, nil, nil, logger)),
		debts:    NewDebtHandler(usecase.NewDebtUseCase(debtRepo, ids, nil, nil, logger)),
		goals:    NewGoalHandler(usecase.NewGoalUseCase(goalRepo, ids, nil, nil, logger)),
		transactions: NewTransactionHandler(usecase.NewTransactionUseCase(
			memory.NewTxManager(store), accountRepo, debtRepo, goalRepo, txRepo, outboxRepo,
			ids, postgresRepo.NewRetrier(logger), nil, nil, logger,
		)),
		categories: NewCategoryHandler(usecase.NewCategoryUseCase(categoryRepo, ids)),
		budgets:    NewBudgetHandler(usecase.NewBudgetUseCase(budgetRepo, txRepo, ids)),
		reports:    NewReportHandler(usecase.NewReportUseCase(accountRepo, debtRepo, txRepo, budgetRepo)),
	}
}

// call invokes h as if routed by chi with params, for testOwner.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithOwnerID(ctx, testOwner)

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func id(v string) map[string]string {
	return map[string]string{"id": v}
}
