package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/usecase"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	assert.NoError(t, pool.ExpectationsWereMet())
}

func testTxManager(pool pgxmock.PgxPoolIface) *TxManager {
	return &TxManager{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

func TestTxManager_CommitThenRollbackIsNoop(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mockPool.ExpectCommit()
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	tx, err := testTxManager(mockPool).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, tx.Rollback(context.Background()))
	assertExpectations(t, mockPool)
}

func TestTxManager_Rollback(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mockPool.ExpectRollback()

	tx, err := testTxManager(mockPool).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	assertExpectations(t, mockPool)
}

func TestTxManager_BeginError(t *testing.T) {
	mockPool := newMockPool(t)
	refused := errors.New("connection refused")
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}).WillReturnError(refused)

	tx, err := testTxManager(mockPool).Begin(context.Background())
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "begin transaction")
}

type foreignTx struct{ usecase.Transaction }

func TestConn(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})

	q, err := conn(mockPool, nil)
	require.NoError(t, err)
	assert.Equal(t, mockPool, q)

	tx, err := testTxManager(mockPool).Begin(context.Background())
	require.NoError(t, err)
	q, err = conn(mockPool, tx)
	require.NoError(t, err)
	assert.Equal(t, tx.(*Tx).PgxTx(), q)

	_, err = conn(mockPool, foreignTx{})
	assert.ErrorContains(t, err, "unexpected transaction type")
}
