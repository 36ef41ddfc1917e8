package handler

import (
	"context"
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// DebtService defines the behavior needed by DebtHandler.
type DebtService interface {
	CreateDebt(ctx context.Context, input usecase.CreateDebtInput) (*domain.Debt, error)
	GetDebt(ctx context.Context, ownerID, id string) (*domain.Debt, error)
	ListDebts(ctx context.Context, ownerID string, kind domain.DebtKind) ([]*domain.Debt, error)
	UpdateDebt(ctx context.Context, ownerID, id string, input usecase.UpdateDebtInput) (*domain.Debt, error)
	DeleteDebt(ctx context.Context, ownerID, id string) error
	CreditCardStatuses(ctx context.Context, ownerID string) ([]domain.CreditCardStatus, error)
}

// DebtHandler handles debt and credit card requests.
type DebtHandler struct {
	debtUC DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtUC DebtService) *DebtHandler {
	return &DebtHandler{debtUC: debtUC}
}

// Create creates a debt, a loan or a credit card.
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.debtUC.CreateDebt(r.Context(), req.ToUseCaseInput(owner(r)))
	if err != nil {
		writeDomainError(w, r, "failed to create debt", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DebtFromDomain(debt))
}

// Get retrieves a debt by ID.
func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "debt")
	if !ok {
		return
	}

	debt, err := h.debtUC.GetDebt(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get debt", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtFromDomain(debt))
}

// List lists debts, optionally of one kind (?kind=OWED|LENT|CREDIT_CARD).
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := domain.DebtKind(r.URL.Query().Get("kind"))

	debts, err := h.debtUC.ListDebts(r.Context(), owner(r), kind)
	if err != nil {
		writeDomainError(w, r, "failed to list debts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.DebtsFromDomain(debts)))
}

// Update changes a debt's terms.
func (h *DebtHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "debt")
	if !ok {
		return
	}
	var req dto.UpdateDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	debt, err := h.debtUC.UpdateDebt(r.Context(), owner(r), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update debt", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DebtFromDomain(debt))
}

// Delete removes a debt. Transactions that referenced it keep their history.
func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "debt")
	if !ok {
		return
	}

	if err := h.debtUC.DeleteDebt(r.Context(), owner(r), id); err != nil {
		writeDomainError(w, r, "failed to delete debt", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreditCardStatus reports the billing state of every credit card.
func (h *DebtHandler) CreditCardStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.debtUC.CreditCardStatuses(r.Context(), owner(r))
	if err != nil {
		writeDomainError(w, r, "failed to get credit card status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.CreditCardStatusesFromDomain(statuses)))
}
