package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, ownerID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID string) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, ownerID, id string, input usecase.UpdateAccountInput) (*domain.Account, error)
	SetBalance(ctx context.Context, ownerID, id string, balance decimal.Decimal) (*domain.Account, error)
	DeleteAccount(ctx context.Context, ownerID, id string) error
	History(ctx context.Context, ownerID, id string) ([]*usecase.WeekGroup, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(owner(r)))
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), owner(r))
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.AccountsFromDomain(accounts)))
}

// Update changes an account's profile.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), owner(r), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// SetBalance overwrites an account's balance.
func (h *AccountHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	var req dto.SetBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.SetBalance(r.Context(), owner(r), id, req.Balance)
	if err != nil {
		writeDomainError(w, r, "failed to set balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes an account no transaction references.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}

	if err := h.accountUC.DeleteAccount(r.Context(), owner(r), id); err != nil {
		writeDomainError(w, r, "failed to delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History returns the account's transactions grouped by week.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}

	weeks, err := h.accountUC.History(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get account history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.HistoryFromWeeks(weeks)))
}
