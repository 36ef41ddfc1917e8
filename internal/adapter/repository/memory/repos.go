package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.accounts.insert(record, account.ID, account)
	})
}

func (r *AccountRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.accounts.get(ownerID, id)
}

func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.accounts.getMany(ownerID, ids), nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	accounts := r.store.accounts.list(ownerID)
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].CreatedAt.Before(accounts[j].CreatedAt) })
	return accounts, nil
}

func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.UpdateBalances(ctx, tx, []*domain.Account{account})
}

func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.accounts.replace(record, ids, accounts)
	})
}

func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.accounts.remove(record, ownerID, id)
	})
}

// DebtRepository implements usecase.DebtRepository.
type DebtRepository struct {
	store *Store
}

// NewDebtRepository creates a new DebtRepository.
func NewDebtRepository(store *Store) *DebtRepository {
	return &DebtRepository{store: store}
}

func (r *DebtRepository) Create(ctx context.Context, tx usecase.Transaction, debt *domain.Debt) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.debts.insert(record, debt.ID, debt)
	})
}

func (r *DebtRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Debt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.debts.get(ownerID, id)
}

func (r *DebtRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Debt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.debts.getMany(ownerID, ids), nil
}

func (r *DebtRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Debt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	debts := r.store.debts.list(ownerID)
	sort.Slice(debts, func(i, j int) bool { return debts[i].CreatedAt.Before(debts[j].CreatedAt) })
	return debts, nil
}

func (r *DebtRepository) Update(ctx context.Context, tx usecase.Transaction, debt *domain.Debt) error {
	return r.UpdatePaidAmounts(ctx, tx, []*domain.Debt{debt})
}

func (r *DebtRepository) UpdatePaidAmounts(ctx context.Context, tx usecase.Transaction, debts []*domain.Debt) error {
	ids := make([]string, len(debts))
	for i, d := range debts {
		ids[i] = d.ID
	}
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.debts.replace(record, ids, debts)
	})
}

func (r *DebtRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.debts.remove(record, ownerID, id)
	})
}

// GoalRepository implements usecase.GoalRepository.
type GoalRepository struct {
	store *Store
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(store *Store) *GoalRepository {
	return &GoalRepository{store: store}
}

func (r *GoalRepository) Create(ctx context.Context, tx usecase.Transaction, goal *domain.Goal) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.goals.insert(record, goal.ID, goal)
	})
}

func (r *GoalRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.goals.get(ownerID, id)
}

func (r *GoalRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, ids []string) ([]*domain.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.goals.getMany(ownerID, ids), nil
}

func (r *GoalRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	goals := r.store.goals.list(ownerID)
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.Before(goals[j].CreatedAt) })
	return goals, nil
}

func (r *GoalRepository) Update(ctx context.Context, tx usecase.Transaction, goal *domain.Goal) error {
	return r.UpdateCurrentAmounts(ctx, tx, []*domain.Goal{goal})
}

func (r *GoalRepository) UpdateCurrentAmounts(ctx context.Context, tx usecase.Transaction, goals []*domain.Goal) error {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.goals.replace(record, ids, goals)
	})
}

func (r *GoalRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.goals.remove(record, ownerID, id)
	})
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.transactions.insert(record, t.ID, t)
	})
}

func (r *TransactionRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.transactions.get(ownerID, id)
}

func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, ownerID, id string) (*domain.Transaction, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.transactions.replace(record, []string{t.ID}, []*domain.Transaction{t})
	})
}

func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		return r.store.transactions.remove(record, ownerID, id)
	})
}

// List returns matching transactions ordered by date, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	r.store.mu.Lock()
	all := r.store.transactions.list(filter.OwnerID)
	r.store.mu.Unlock()

	matched := all[:0]
	for _, t := range all {
		if filter.AccountID != "" && !t.Touches(filter.AccountID) {
			continue
		}
		if filter.Type != "" && t.Type() != filter.Type {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.Date.Before(*filter.To) {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*domain.Transaction{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *TransactionRepository) ExistsForAccount(ctx context.Context, ownerID, accountID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.transactions.rows {
		if t.OwnerID == ownerID && t.Touches(accountID) {
			return true, nil
		}
	}
	return false, nil
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	store *Store
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return r.store.write(ctx, nil, func(record func(func())) error {
		return r.store.categories.insert(record, category.ID, category)
	})
}

func (r *CategoryRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.categories.get(ownerID, id)
}

func (r *CategoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	categories := r.store.categories.list(ownerID)
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.store.write(ctx, nil, func(record func(func())) error {
		return r.store.categories.remove(record, ownerID, id)
	})
}

type budgetKey struct {
	ownerID     string
	year, month int
}

// BudgetRepository implements usecase.BudgetRepository.
type BudgetRepository struct {
	store *Store
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(store *Store) *BudgetRepository {
	return &BudgetRepository{store: store}
}

func (r *BudgetRepository) Get(ctx context.Context, ownerID string, year, month int) (*domain.Budget, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.budgets[budgetKey{ownerID, year, month}]
	if !ok {
		return nil, domain.ErrBudgetNotFound
	}
	return cloneBudget(b), nil
}

func (r *BudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := budgetKey{budget.OwnerID, budget.Year, budget.Month}
	if cur, ok := r.store.budgets[key]; ok {
		budget.ID = cur.ID
		budget.CreatedAt = cur.CreatedAt
	}
	r.store.budgets[key] = cloneBudget(budget)
	return nil
}

func cloneBudget(b *domain.Budget) *domain.Budget {
	c := *b
	c.CategoryLimits = make(map[string]decimal.Decimal, len(b.CategoryLimits))
	for k, v := range b.CategoryLimits {
		c.CategoryLimits[k] = v
	}
	return &c
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return r.store.write(ctx, tx, func(record func(func())) error {
		e := *event
		r.store.outbox = append(r.store.outbox, &e)
		record(func() {
			for i, cur := range r.store.outbox {
				if cur.ID == e.ID {
					r.store.outbox = append(r.store.outbox[:i], r.store.outbox[i+1:]...)
					return
				}
			}
		})
		return nil
	})
}

func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if e.Published {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept
	return nil
}

// write runs fn under the store lock, journaling on tx when one is given.
// Without tx, fn runs as its own transaction and waits for the write slot.
func (s *Store) write(ctx context.Context, tx usecase.Transaction, fn func(record func(func())) error) error {
	record, err := journal(tx)
	if err != nil {
		return err
	}
	if tx == nil {
		if err := s.acquire(ctx); err != nil {
			return err
		}
		defer s.release()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(record)
}

// Len is the number of stored events, published or not.
func (r *OutboxRepository) Len() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.outbox)
}
