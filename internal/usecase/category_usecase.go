package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/gofinance/internal/domain"
)

// CategoryUseCase serves built-in and user-defined categories.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	idGen        IDGenerator
}

// NewCategoryUseCase creates a new CategoryUseCase.
func NewCategoryUseCase(categoryRepo CategoryRepository, idGen IDGenerator) *CategoryUseCase {
	return &CategoryUseCase{categoryRepo: categoryRepo, idGen: idGen}
}

// CreateCategoryInput represents input for creating a category.
type CreateCategoryInput struct {
	OwnerID string
	Name    string
	Icon    string
	Type    domain.CategoryType
}

// CreateCategory adds a user-defined category.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	category := &domain.Category{
		ID:        uc.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Name:      strings.TrimSpace(input.Name),
		Icon:      input.Icon,
		Type:      input.Type,
		CreatedAt: time.Now().UTC(),
	}
	if err := domain.ValidateCategory(category); err != nil {
		return nil, err
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the built-in categories followed by the owner's,
// optionally only one type.
func (uc *CategoryUseCase) ListCategories(ctx context.Context, ownerID string, typ domain.CategoryType) ([]*domain.Category, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	custom, err := uc.categoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []*domain.Category
	for _, c := range append(domain.SystemCategories(), custom...) {
		if typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// DeleteCategory removes a user-defined category. Built-in ones cannot be removed.
func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}
	if domain.IsSystemCategory(id) {
		return domain.ErrSystemCategory
	}
	return uc.categoryRepo.Delete(ctx, ownerID, id)
}
