package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// BudgetRepository implements usecase.BudgetRepository. Category limits are
// kept as a JSON object of decimal strings.
type BudgetRepository struct {
	pool querier
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

func (r *BudgetRepository) Get(ctx context.Context, ownerID string, year, month int) (*domain.Budget, error) {
	var (
		b      domain.Budget
		limits []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, year, month, total_income, category_limits, created_at, updated_at
		 FROM budgets WHERE owner_id = $1 AND year = $2 AND month = $3`,
		ownerID, year, month,
	).Scan(&b.ID, &b.OwnerID, &b.Year, &b.Month, &b.TotalIncome, &limits, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, noRows(err, domain.ErrBudgetNotFound)
	}

	b.CategoryLimits = map[string]decimal.Decimal{}
	if len(limits) > 0 {
		if err := json.Unmarshal(limits, &b.CategoryLimits); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// Upsert inserts the month's budget or replaces its amounts, keeping the
// original id and creation time.
func (r *BudgetRepository) Upsert(ctx context.Context, b *domain.Budget) error {
	limits, err := json.Marshal(b.CategoryLimits)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO budgets (id, owner_id, year, month, total_income, category_limits, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (owner_id, year, month) DO UPDATE
		 SET total_income = EXCLUDED.total_income,
		     category_limits = EXCLUDED.category_limits,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		b.ID, b.OwnerID, b.Year, b.Month, b.TotalIncome, limits, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID, &b.CreatedAt)
}
