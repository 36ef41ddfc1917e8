package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it with the kind and
// retry hint a client needs.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)
	resp := dto.ErrorResponse{Error: message, Message: err.Error()}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp.Kind = string(vErr.Kind)
		resp.Message = vErr.Message
	}
	if status == http.StatusServiceUnavailable {
		resp.Retryable = true
	}
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}

	writeJSON(w, status, resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case usecase.IsPersistenceError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrDebtNotFound),
		errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrBudgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountInUse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSystemCategory):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOwnerRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidBudgetPeriod),
		errors.Is(err, domain.ErrInvalidCategoryLimit),
		errors.Is(err, domain.ErrUnknownTransaction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// owner returns the caller's owner id set by the owner middleware.
func owner(r *http.Request) string {
	return middleware.OwnerID(r.Context())
}

// pathID returns the {id} route parameter, writing a 400 when it is empty.
func pathID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing "+what+" ID", "")
		return "", false
	}
	return id, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
