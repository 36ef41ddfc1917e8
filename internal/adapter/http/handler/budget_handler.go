package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// BudgetService defines the behavior needed by BudgetHandler.
type BudgetService interface {
	GetBudget(ctx context.Context, ownerID string, year, month int) (*domain.Budget, error)
	SetBudget(ctx context.Context, input usecase.SetBudgetInput) (*domain.Budget, error)
	Status(ctx context.Context, ownerID string, year, month int) (*domain.BudgetStatus, error)
}

// BudgetHandler handles monthly budget requests under /budgets/{year}/{month}.
type BudgetHandler struct {
	budgetUC BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetUC BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetUC: budgetUC}
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}

	budget, err := h.budgetUC.GetBudget(r.Context(), owner(r), year, month)
	if err != nil {
		writeDomainError(w, r, "failed to get budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromDomain(budget))
}

func (h *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}
	var req dto.SetBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	budget, err := h.budgetUC.SetBudget(r.Context(), req.ToUseCaseInput(owner(r), year, month))
	if err != nil {
		writeDomainError(w, r, "failed to set budget", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromDomain(budget))
}

func (h *BudgetHandler) Status(w http.ResponseWriter, r *http.Request) {
	year, month, ok := period(w, r)
	if !ok {
		return
	}

	status, err := h.budgetUC.Status(r.Context(), owner(r), year, month)
	if err != nil {
		writeDomainError(w, r, "failed to get budget status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetStatusFromDomain(status))
}

func period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		writeError(w, http.StatusBadRequest, "invalid period", "year and month must be integers")
		return 0, 0, false
	}
	return year, month, true
}
