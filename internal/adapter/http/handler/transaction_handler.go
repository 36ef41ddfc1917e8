package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Create(ctx context.Context, input usecase.TransactionInput) (*usecase.MutationResult, error)
	Update(ctx context.Context, id string, input usecase.TransactionInput) (*usecase.MutationResult, error)
	Delete(ctx context.Context, ownerID, id string) (*usecase.MutationResult, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// TransactionHandler handles transaction requests. Every mutation answers
// with the records whose balances it changed.
type TransactionHandler struct {
	transactionUC TransactionService
	now           func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create records a transaction and applies its effects.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.transactionUC.Create(r.Context(), req.ToUseCaseInput(owner(r), h.now()))
	if err != nil {
		writeDomainError(w, r, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MutationFromResult(result))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}

	t, err := h.transactionUC.Get(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// List lists transactions, newest first. Supported query parameters are
// account_id, type, from, to (RFC 3339 or YYYY-MM-DD), limit and offset.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		OwnerID:   owner(r),
		AccountID: q.Get("account_id"),
		Type:      domain.TransactionType(q.Get("type")),
		Limit:     parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	var err error
	if filter.From, err = parseTimeQuery(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return
	}
	if filter.To, err = parseTimeQuery(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return
	}

	txs, err := h.transactionUC.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.TransactionsFromDomain(txs)))
}

// Update replaces a transaction, reverting its old effects first.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.transactionUC.Update(r.Context(), id, req.ToUseCaseInput(owner(r), h.now()))
	if err != nil {
		writeDomainError(w, r, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MutationFromResult(result))
}

// Delete removes a transaction and reverts its effects.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}

	result, err := h.transactionUC.Delete(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MutationFromResult(result))
}

func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		t, err = time.Parse(time.DateOnly, val)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
