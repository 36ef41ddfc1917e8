// Package memory is an in-process store used for local runs and tests.
// Writes made through a Tx are journaled and undone in reverse on Rollback.
// One writer runs at a time: a Tx holds the store's write slot from Begin
// until Commit or Rollback.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

// Store holds every collection behind one lock.
type Store struct {
	mu sync.Mutex
	// writeSlot admits one writer, transactional or not.
	writeSlot chan struct{}

	accounts     *table[domain.Account]
	debts        *table[domain.Debt]
	goals        *table[domain.Goal]
	transactions *table[domain.Transaction]
	categories   *table[domain.Category]
	budgets      map[budgetKey]*domain.Budget
	outbox       []*domain.OutboxEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		writeSlot: make(chan struct{}, 1),
		accounts: newTable(
			func(a *domain.Account) *domain.Account { return a.Clone() },
			func(a *domain.Account) string { return a.OwnerID },
			func(a *domain.Account) *int64 { return &a.Version },
			domain.ErrAccountNotFound,
		),
		debts: newTable(
			func(d *domain.Debt) *domain.Debt { return d.Clone() },
			func(d *domain.Debt) string { return d.OwnerID },
			func(d *domain.Debt) *int64 { return &d.Version },
			domain.ErrDebtNotFound,
		),
		goals: newTable(
			func(g *domain.Goal) *domain.Goal { return g.Clone() },
			func(g *domain.Goal) string { return g.OwnerID },
			func(g *domain.Goal) *int64 { return &g.Version },
			domain.ErrGoalNotFound,
		),
		transactions: newTable(
			func(t *domain.Transaction) *domain.Transaction { return t.Clone() },
			func(t *domain.Transaction) string { return t.OwnerID },
			func(t *domain.Transaction) *int64 { return &t.Version },
			domain.ErrTransactionNotFound,
		),
		categories: newTable(
			func(c *domain.Category) *domain.Category { cp := *c; return &cp },
			func(c *domain.Category) string { return c.OwnerID },
			nil,
			domain.ErrCategoryNotFound,
		),
		budgets: make(map[budgetKey]*domain.Budget),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writeSlot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writeSlot
}

// TxManager implements usecase.TransactionManager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a journaled transaction, waiting for any other writer to
// finish.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// Tx records an undo step for every write made through it.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit discards the journal.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

// Rollback replays the journal newest first.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	defer t.store.release()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}

// journal returns a function recording undo steps on tx. Writes made
// without a transaction are not journaled.
func journal(tx usecase.Transaction) (func(undo func()), error) {
	if tx == nil {
		return func(func()) {}, nil
	}
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("memory: foreign transaction")
	}
	if mtx.done {
		return nil, ErrTxDone
	}
	return func(undo func()) { mtx.undo = append(mtx.undo, undo) }, nil
}

// table is one collection keyed by id. Rows are stored and returned as copies.
type table[T any] struct {
	rows     map[string]*T
	clone    func(*T) *T
	owner    func(*T) string
	version  func(*T) *int64
	notFound error
}

func newTable[T any](clone func(*T) *T, owner func(*T) string, version func(*T) *int64, notFound error) *table[T] {
	return &table[T]{
		rows:     make(map[string]*T),
		clone:    clone,
		owner:    owner,
		version:  version,
		notFound: notFound,
	}
}

func (t *table[T]) get(ownerID, id string) (*T, error) {
	row, ok := t.rows[id]
	if !ok || t.owner(row) != ownerID {
		return nil, t.notFound
	}
	return t.clone(row), nil
}

func (t *table[T]) getMany(ownerID string, ids []string) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if row, err := t.get(ownerID, id); err == nil {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) list(ownerID string) []*T {
	var out []*T
	for _, row := range t.rows {
		if t.owner(row) == ownerID {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *table[T]) insert(record func(func()), id string, row *T) error {
	if _, exists := t.rows[id]; exists {
		return errors.New("memory: duplicate id " + id)
	}
	t.rows[id] = t.clone(row)
	record(func() { delete(t.rows, id) })
	return nil
}

// replace swaps in rows after checking every expected version, bumping each
// row's version on success. Either all rows are written or none.
func (t *table[T]) replace(record func(func()), ids []string, rows []*T) error {
	for i, id := range ids {
		cur, ok := t.rows[id]
		if !ok || t.owner(cur) != t.owner(rows[i]) {
			return domain.ErrVersionConflict
		}
		if t.version != nil && *t.version(cur) != *t.version(rows[i]) {
			return domain.ErrVersionConflict
		}
	}

	for i, id := range ids {
		id := id
		prev := t.rows[id]
		if t.version != nil {
			*t.version(rows[i])++
		}
		t.rows[id] = t.clone(rows[i])
		record(func() { t.rows[id] = prev })
	}
	return nil
}

func (t *table[T]) remove(record func(func()), ownerID, id string) error {
	prev, ok := t.rows[id]
	if !ok || t.owner(prev) != ownerID {
		return t.notFound
	}
	delete(t.rows, id)
	record(func() { t.rows[id] = prev })
	return nil
}
