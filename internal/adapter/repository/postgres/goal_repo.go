package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

const goalColumns = `id, owner_id, name, target_amount, current_amount, currency, deadline, version, created_at, updated_at`

// GoalRepository implements usecase.GoalRepository.
type GoalRepository struct {
	pool querier
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

// Create inserts a new goal.
func (r *GoalRepository) Create(ctx context.Context, tx usecase.Transaction, g *domain.Goal) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount, g.CurrentAmount, string(g.Currency),
		timeToPgTimestamptz(g.Deadline), g.Version, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a goal by ID.
func (r *GoalRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	g, err := scanGoal(row)
	if err != nil {
		return nil, noRows(err, domain.ErrGoalNotFound)
	}
	return g, nil
}

// GetByIDsForUpdate locks the goals found among ids in id order.
func (r *GoalRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Goal, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+goalColumns+` FROM goals
		 WHERE owner_id = $1 AND id = ANY($2)
		 ORDER BY id FOR UPDATE`,
		ownerID, ids,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

// ListByOwner lists the owner's goals, oldest first.
func (r *GoalRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

// Update writes every mutable field if the stored version still matches.
func (r *GoalRepository) Update(ctx context.Context, tx usecase.Transaction, g *domain.Goal) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE goals
		 SET name = $1, target_amount = $2, current_amount = $3, deadline = $4, updated_at = $5, version = version + 1
		 WHERE id = $6 AND owner_id = $7 AND version = $8`,
		g.Name, g.TargetAmount, g.CurrentAmount, timeToPgTimestamptz(g.Deadline), g.UpdatedAt,
		g.ID, g.OwnerID, g.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	g.Version++
	return nil
}

// UpdateCurrentAmounts writes the saved amounts as one batch.
func (r *GoalRepository) UpdateCurrentAmounts(ctx context.Context, tx usecase.Transaction, goals []*domain.Goal) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, g := range goals {
		batch.Queue(
			`UPDATE goals SET current_amount = $1, updated_at = $2, version = version + 1
			 WHERE id = $3 AND owner_id = $4 AND version = $5`,
			g.CurrentAmount, g.UpdatedAt, g.ID, g.OwnerID, g.Version,
		)
	}
	if err := execCAS(ctx, q, batch); err != nil {
		return err
	}

	for _, g := range goals {
		g.Version++
	}
	return nil
}

// Delete removes a goal.
func (r *GoalRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return deleted(tag, err, domain.ErrGoalNotFound)
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var (
		g        domain.Goal
		currency string
		deadline pgtype.Timestamptz
	)
	err := row.Scan(
		&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &currency,
		&deadline, &g.Version, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Currency = domain.Currency(currency)
	g.Deadline = pgTimestamptzToTime(deadline)
	return &g, nil
}

func collectGoals(rows pgx.Rows) ([]*domain.Goal, error) {
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
