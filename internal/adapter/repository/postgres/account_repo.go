package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

const accountColumns = `id, owner_id, name, type, currency, balance, logo, icon, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, a *domain.Account) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.OwnerID, a.Name, string(a.Type), string(a.Currency), a.Balance,
		a.Logo, a.Icon, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, noRows(err, domain.ErrAccountNotFound)
	}
	return a, nil
}

// GetByIDsForUpdate locks the accounts found among ids in id order. Missing
// ids are skipped.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Account, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE owner_id = $1 AND id = ANY($2)
		 ORDER BY id FOR UPDATE`,
		ownerID, ids,
	)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// ListByOwner lists the owner's accounts, oldest first.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// Update writes every mutable field if the stored version still matches.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, a *domain.Account) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE accounts
		 SET name = $1, type = $2, balance = $3, logo = $4, icon = $5, updated_at = $6, version = version + 1
		 WHERE id = $7 AND owner_id = $8 AND version = $9`,
		a.Name, string(a.Type), a.Balance, a.Logo, a.Icon, a.UpdatedAt, a.ID, a.OwnerID, a.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	a.Version++
	return nil
}

// UpdateBalances writes the balances as one batch, all or nothing within tx.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(
			`UPDATE accounts SET balance = $1, updated_at = $2, version = version + 1
			 WHERE id = $3 AND owner_id = $4 AND version = $5`,
			a.Balance, a.UpdatedAt, a.ID, a.OwnerID, a.Version,
		)
	}
	if err := execCAS(ctx, q, batch); err != nil {
		return err
	}

	for _, a := range accounts {
		a.Version++
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return deleted(tag, err, domain.ErrAccountNotFound)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a             domain.Account
		typ, currency string
	)
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &typ, &currency, &a.Balance,
		&a.Logo, &a.Icon, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = domain.AccountType(typ)
	a.Currency = domain.Currency(currency)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
