package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
)

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	pool querier
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, owner_id, name, icon, type, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.OwnerID, c.Name, c.Icon, string(c.Type), c.CreatedAt,
	)
	return err
}

func (r *CategoryRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Category, error) {
	var (
		c   domain.Category
		typ string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, icon, type, created_at FROM categories WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &typ, &c.CreatedAt)
	if err != nil {
		return nil, noRows(err, domain.ErrCategoryNotFound)
	}
	c.Type = domain.CategoryType(typ)
	return &c, nil
}

func (r *CategoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, icon, type, created_at FROM categories WHERE owner_id = $1 ORDER BY name`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var (
			c   domain.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &typ, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Type = domain.CategoryType(typ)
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return deleted(tag, err, domain.ErrCategoryNotFound)
}
