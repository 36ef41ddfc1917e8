package handler

import (
	"context"
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// CategoryService defines the behavior needed by CategoryHandler.
type CategoryService interface {
	CreateCategory(ctx context.Context, input usecase.CreateCategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context, ownerID string, typ domain.CategoryType) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id string) error
}

// CategoryHandler handles category requests.
type CategoryHandler struct {
	categoryUC CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryUC CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryUC: categoryUC}
}

// Create adds a custom category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.categoryUC.CreateCategory(r.Context(), req.ToUseCaseInput(owner(r)))
	if err != nil {
		writeDomainError(w, r, "failed to create category", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CategoryFromDomain(category))
}

// List returns system and custom categories, optionally of one type.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	typ := domain.CategoryType(r.URL.Query().Get("type"))

	categories, err := h.categoryUC.ListCategories(r.Context(), owner(r), typ)
	if err != nil {
		writeDomainError(w, r, "failed to list categories", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.CategoriesFromDomain(categories)))
}

// Delete removes a custom category. System categories are refused.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category")
	if !ok {
		return
	}

	if err := h.categoryUC.DeleteCategory(r.Context(), owner(r), id); err != nil {
		writeDomainError(w, r, "failed to delete category", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
