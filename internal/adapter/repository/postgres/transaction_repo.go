package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

const transactionColumns = `id, owner_id, type, amount, description, date, category_id,
	account_id, from_account_id, to_account_id, debt_id, goal_id,
	exchange_rate, from_currency, to_currency, version, created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository. Each
// variant's references are stored in their own columns.
type TransactionRepository struct {
	pool querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// detailColumns is the flattened form of domain.Details.
type detailColumns struct {
	accountID     string
	fromAccountID string
	toAccountID   string
	debtID        string
	goalID        string
	exchangeRate  pgtype.Numeric
	fromCurrency  string
	toCurrency    string
}

func flatten(details domain.Details) detailColumns {
	var c detailColumns
	switch d := details.(type) {
	case domain.Income:
		c.accountID = d.AccountID
	case domain.Expense:
		c.accountID = d.AccountID
	case domain.Transfer:
		c.fromAccountID = d.FromAccountID
		c.toAccountID = d.ToAccountID
		c.exchangeRate = decimalToNumeric(d.ExchangeRate)
		c.fromCurrency = string(d.FromCurrency)
		c.toCurrency = string(d.ToCurrency)
	case domain.DebtPayment:
		c.accountID, c.debtID = d.AccountID, d.DebtID
	case domain.CreditCardPayment:
		c.accountID, c.debtID = d.AccountID, d.DebtID
	case domain.GoalContribution:
		c.accountID, c.goalID = d.AccountID, d.GoalID
	case domain.LoanCollection:
		c.accountID, c.debtID = d.AccountID, d.DebtID
	}
	return c
}

func (c detailColumns) details(typ domain.TransactionType) (domain.Details, error) {
	switch typ {
	case domain.TypeIncome:
		return domain.Income{AccountID: c.accountID}, nil
	case domain.TypeExpense:
		return domain.Expense{AccountID: c.accountID}, nil
	case domain.TypeTransfer:
		return domain.Transfer{
			FromAccountID: c.fromAccountID,
			ToAccountID:   c.toAccountID,
			ExchangeRate:  numericToDecimal(c.exchangeRate),
			FromCurrency:  domain.Currency(c.fromCurrency),
			ToCurrency:    domain.Currency(c.toCurrency),
		}, nil
	case domain.TypePayDebt:
		return domain.DebtPayment{AccountID: c.accountID, DebtID: c.debtID}, nil
	case domain.TypePayCreditCard:
		return domain.CreditCardPayment{AccountID: c.accountID, DebtID: c.debtID}, nil
	case domain.TypeSaveForGoal:
		return domain.GoalContribution{AccountID: c.accountID, GoalID: c.goalID}, nil
	case domain.TypeReceiveDebtPayment:
		return domain.LoanCollection{AccountID: c.accountID, DebtID: c.debtID}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTransaction, typ)
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	c := flatten(t.Details)
	_, err = q.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, t.OwnerID, string(t.Type()), t.Amount, t.Description, t.Date, t.CategoryID,
		c.accountID, c.fromAccountID, c.toAccountID, c.debtID, c.goalID,
		c.exchangeRate, c.fromCurrency, c.toCurrency, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	return r.get(ctx, r.pool, ownerID, id, "")
}

// GetByIDForUpdate retrieves a transaction and locks its row.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, ownerID, id string) (*domain.Transaction, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, q, ownerID, id, " FOR UPDATE")
}

func (r *TransactionRepository) get(ctx context.Context, q querier, ownerID, id, lock string) (*domain.Transaction, error) {
	row := q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND owner_id = $2`+lock,
		id, ownerID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, noRows(err, domain.ErrTransactionNotFound)
	}
	return t, nil
}

// Update replaces a transaction if the stored version still matches.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	c := flatten(t.Details)
	tag, err := q.Exec(ctx,
		`UPDATE transactions
		 SET type = $1, amount = $2, description = $3, date = $4, category_id = $5,
		     account_id = $6, from_account_id = $7, to_account_id = $8, debt_id = $9, goal_id = $10,
		     exchange_rate = $11, from_currency = $12, to_currency = $13, updated_at = $14, version = version + 1
		 WHERE id = $15 AND owner_id = $16 AND version = $17`,
		string(t.Type()), t.Amount, t.Description, t.Date, t.CategoryID,
		c.accountID, c.fromAccountID, c.toAccountID, c.debtID, c.goalID,
		c.exchangeRate, c.fromCurrency, c.toCurrency, t.UpdatedAt,
		t.ID, t.OwnerID, t.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	t.Version++
	return nil
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return deleted(tag, err, domain.ErrTransactionNotFound)
}

// List returns matching transactions, newest first. From is inclusive and
// To exclusive.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query, args := listQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func listQuery(filter domain.TransactionFilter) (string, []any) {
	args := []any{filter.OwnerID}
	where := []string{"owner_id = $1"}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AccountID != "" {
		p := arg(filter.AccountID)
		where = append(where, fmt.Sprintf("(account_id = %[1]s OR from_account_id = %[1]s OR to_account_id = %[1]s)", p))
	}
	if filter.Type != "" {
		where = append(where, "type = "+arg(string(filter.Type)))
	}
	if filter.From != nil {
		where = append(where, "date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "date < "+arg(*filter.To))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}
	return query, args
}

// ExistsForAccount reports whether any transaction references the account.
func (r *TransactionRepository) ExistsForAccount(ctx context.Context, ownerID, accountID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE owner_id = $1 AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)
		)`,
		ownerID, accountID,
	).Scan(&exists)
	return exists, err
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t   domain.Transaction
		typ string
		c   detailColumns
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &typ, &t.Amount, &t.Description, &t.Date, &t.CategoryID,
		&c.accountID, &c.fromAccountID, &c.toAccountID, &c.debtID, &c.goalID,
		&c.exchangeRate, &c.fromCurrency, &c.toCurrency, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Details, err = c.details(domain.TransactionType(typ))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
