package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

const debtColumns = `id, owner_id, name, total_amount, paid_amount, currency, due_date, is_lent, is_credit_card,
	credit_limit, cutoff_day, payment_day, last_four_digits, minimum_payment, total_payment,
	logo, icon, version, created_at, updated_at`

// DebtRepository implements usecase.DebtRepository.
type DebtRepository struct {
	pool querier
}

// NewDebtRepository creates a new DebtRepository.
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{pool: pool}
}

// Create inserts a new debt.
func (r *DebtRepository) Create(ctx context.Context, tx usecase.Transaction, d *domain.Debt) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO debts (`+debtColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		d.ID, d.OwnerID, d.Name, d.TotalAmount, d.PaidAmount, string(d.Currency),
		timeToPgTimestamptz(d.DueDate), d.IsLent, d.IsCreditCard,
		decimalToNumeric(d.CreditLimit), intToPgInt4(d.CutoffDay), intToPgInt4(d.PaymentDay), d.LastFourDigits,
		decimalToNumeric(d.MinimumPayment), decimalToNumeric(d.TotalPayment),
		d.Logo, d.Icon, d.Version, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetByID retrieves a debt by ID.
func (r *DebtRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Debt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	d, err := scanDebt(row)
	if err != nil {
		return nil, noRows(err, domain.ErrDebtNotFound)
	}
	return d, nil
}

// GetByIDsForUpdate locks the debts found among ids in id order.
func (r *DebtRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Debt, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+debtColumns+` FROM debts
		 WHERE owner_id = $1 AND id = ANY($2)
		 ORDER BY id FOR UPDATE`,
		ownerID, ids,
	)
	if err != nil {
		return nil, err
	}
	return collectDebts(rows)
}

// ListByOwner lists the owner's debts, oldest first.
func (r *DebtRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Debt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectDebts(rows)
}

// Update writes every mutable field if the stored version still matches.
func (r *DebtRepository) Update(ctx context.Context, tx usecase.Transaction, d *domain.Debt) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE debts
		 SET name = $1, total_amount = $2, paid_amount = $3, due_date = $4, credit_limit = $5,
		     cutoff_day = $6, payment_day = $7, last_four_digits = $8, minimum_payment = $9,
		     total_payment = $10, logo = $11, icon = $12, updated_at = $13, version = version + 1
		 WHERE id = $14 AND owner_id = $15 AND version = $16`,
		d.Name, d.TotalAmount, d.PaidAmount, timeToPgTimestamptz(d.DueDate), decimalToNumeric(d.CreditLimit),
		intToPgInt4(d.CutoffDay), intToPgInt4(d.PaymentDay), d.LastFourDigits, decimalToNumeric(d.MinimumPayment),
		decimalToNumeric(d.TotalPayment), d.Logo, d.Icon, d.UpdatedAt,
		d.ID, d.OwnerID, d.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	d.Version++
	return nil
}

// UpdatePaidAmounts writes the paid amounts as one batch.
func (r *DebtRepository) UpdatePaidAmounts(ctx context.Context, tx usecase.Transaction, debts []*domain.Debt) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, d := range debts {
		batch.Queue(
			`UPDATE debts SET paid_amount = $1, updated_at = $2, version = version + 1
			 WHERE id = $3 AND owner_id = $4 AND version = $5`,
			d.PaidAmount, d.UpdatedAt, d.ID, d.OwnerID, d.Version,
		)
	}
	if err := execCAS(ctx, q, batch); err != nil {
		return err
	}

	for _, d := range debts {
		d.Version++
	}
	return nil
}

// Delete removes a debt. Transactions referencing it are left in place.
func (r *DebtRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	q, err := conn(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM debts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return deleted(tag, err, domain.ErrDebtNotFound)
}

func scanDebt(row pgx.Row) (*domain.Debt, error) {
	var (
		d                                 domain.Debt
		currency                          string
		dueDate                           pgtype.Timestamptz
		creditLimit, minPayment, totalPay pgtype.Numeric
		cutoffDay, paymentDay             pgtype.Int4
	)
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.TotalAmount, &d.PaidAmount, &currency, &dueDate, &d.IsLent, &d.IsCreditCard,
		&creditLimit, &cutoffDay, &paymentDay, &d.LastFourDigits, &minPayment, &totalPay,
		&d.Logo, &d.Icon, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Currency = domain.Currency(currency)
	d.DueDate = pgTimestamptzToTime(dueDate)
	d.CreditLimit = numericToDecimal(creditLimit)
	d.CutoffDay = pgInt4ToInt(cutoffDay)
	d.PaymentDay = pgInt4ToInt(paymentDay)
	d.MinimumPayment = numericToDecimal(minPayment)
	d.TotalPayment = numericToDecimal(totalPay)
	return &d, nil
}

func collectDebts(rows pgx.Rows) ([]*domain.Debt, error) {
	defer rows.Close()

	var debts []*domain.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}
