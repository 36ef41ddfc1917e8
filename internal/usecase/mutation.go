package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iho/gofinance/internal/domain"
)

// mutation is one attempt at changing the ledger: a store transaction, the
// records it locked and the compensations registered so far.
type mutation struct {
	uc       *TransactionUseCase
	ctx      context.Context
	cancel   context.CancelFunc
	tx       Transaction
	ownerID  string
	state    *domain.LedgerState
	comp     *Compensations
	written  []domain.Changes
	now      time.Time
	finished bool
}

func (uc *TransactionUseCase) begin(ctx context.Context, ownerID string) (*mutation, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		cancel()
		uc.countFailure("begin")
		return nil, &PersistenceError{Stage: "begin", Err: err}
	}

	return &mutation{
		uc:      uc,
		ctx:     txCtx,
		cancel:  cancel,
		tx:      tx,
		ownerID: ownerID,
		state:   domain.NewLedgerState(),
		comp:    NewCompensations(uc.logger),
		now:     uc.clock(),
	}, nil
}

// close rolls back anything not committed. Nothing has been written when a
// mutation ends here without fail or commit.
func (m *mutation) close() {
	if !m.finished {
		_ = m.tx.Rollback(context.WithoutCancel(m.ctx))
	}
	m.cancel()
}

// load locks every account, debt and goal the transactions reference, in
// sorted id order. Missing records are simply absent from the state.
func (m *mutation) load(txs ...*domain.Transaction) error {
	var accountIDs, debtIDs, goalIDs []string
	for _, t := range txs {
		refs := t.References()
		accountIDs = append(accountIDs, refs.AccountIDs...)
		debtIDs = append(debtIDs, refs.DebtID)
		goalIDs = append(goalIDs, refs.GoalID)
	}

	if ids := uniqueSorted(accountIDs); len(ids) > 0 {
		accounts, err := m.uc.accountRepo.GetByIDsForUpdate(m.ctx, m.tx, m.ownerID, ids)
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		m.state.AddAccounts(accounts...)
	}
	if ids := uniqueSorted(debtIDs); len(ids) > 0 {
		debts, err := m.uc.debtRepo.GetByIDsForUpdate(m.ctx, m.tx, m.ownerID, ids)
		if err != nil {
			return fmt.Errorf("lock debts: %w", err)
		}
		m.state.AddDebts(debts...)
	}
	if ids := uniqueSorted(goalIDs); len(ids) > 0 {
		goals, err := m.uc.goalRepo.GetByIDsForUpdate(m.ctx, m.tx, m.ownerID, ids)
		if err != nil {
			return fmt.Errorf("lock goals: %w", err)
		}
		m.state.AddGoals(goals...)
	}
	return nil
}

// apply mutates the loaded records and registers their restoration.
func (m *mutation) apply(deltas []domain.Delta) domain.Changes {
	snapshot := m.state.Clone()
	changes := m.state.Apply(deltas, m.now)

	m.comp.Add("restore loaded records", func(context.Context) error {
		for _, a := range changes.Accounts {
			*a = *snapshot.Accounts[a.ID]
		}
		for _, d := range changes.Debts {
			*d = *snapshot.Debts[d.ID]
		}
		for _, g := range changes.Goals {
			*g = *snapshot.Goals[g.ID]
		}
		return nil
	})

	for _, o := range changes.Orphans {
		m.uc.logger.Debug().
			Str("owner_id", m.ownerID).
			Str("target", o.Target.String()).
			Str("amount", o.Amount.String()).
			Msg("dropping delta for missing record")
		if m.uc.metrics != nil {
			m.uc.metrics.OrphanedDeltas.WithLabelValues(string(o.Target.Kind)).Inc()
		}
	}

	return changes
}

// persist writes each changed collection as one batch.
func (m *mutation) persist(changes domain.Changes) error {
	if len(changes.Accounts) > 0 {
		if err := m.uc.accountRepo.UpdateBalances(m.ctx, m.tx, changes.Accounts); err != nil {
			return m.fail("accounts", err)
		}
	}
	if len(changes.Debts) > 0 {
		if err := m.uc.debtRepo.UpdatePaidAmounts(m.ctx, m.tx, changes.Debts); err != nil {
			return m.fail("debts", err)
		}
	}
	if len(changes.Goals) > 0 {
		if err := m.uc.goalRepo.UpdateCurrentAmounts(m.ctx, m.tx, changes.Goals); err != nil {
			return m.fail("goals", err)
		}
	}

	m.uc.cache.InvalidateOnFailure(m.ownerID, changes, m.comp)
	m.written = append(m.written, changes)
	return nil
}

func (m *mutation) recordEvent(eventType string, t *domain.Transaction, changes domain.Changes) error {
	if m.uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            m.uc.idGen.Generate(),
		OwnerID:       m.ownerID,
		AggregateID:   t.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       domain.NewTransactionEvent(t, len(changes.Orphans), m.now).Map(),
		CreatedAt:     m.now,
	}
	if err := m.uc.outboxRepo.Create(m.ctx, m.tx, event); err != nil {
		return m.fail("outbox", err)
	}
	return nil
}

func (m *mutation) commit() error {
	if err := m.tx.Commit(m.ctx); err != nil {
		return m.fail("commit", err)
	}
	m.finished = true

	ctx := context.WithoutCancel(m.ctx)
	for _, changes := range m.written {
		m.uc.cache.WriteThrough(ctx, m.ownerID, changes)
	}
	return nil
}

// fail rolls the store back, runs the compensations newest first and
// classifies err.
func (m *mutation) fail(stage string, err error) error {
	m.finished = true
	ctx := context.WithoutCancel(m.ctx)
	log := m.uc.logger

	if rbErr := m.tx.Rollback(ctx); rbErr != nil {
		log.Warn().Err(rbErr).Str("stage", stage).Msg("rollback failed")
	}

	if n := m.comp.Len(); n > 0 {
		if cErr := m.comp.Run(ctx); cErr != nil {
			log.Error().Err(cErr).Str("stage", stage).Msg("compensation incomplete")
		}
		if m.uc.metrics != nil {
			m.uc.metrics.Compensations.Add(float64(n))
		}
	}

	if errors.Is(err, domain.ErrVersionConflict) {
		if m.uc.metrics != nil {
			m.uc.metrics.VersionConflicts.Inc()
		}
		log.Debug().Str("stage", stage).Msg("version conflict")
		return fmt.Errorf("%s: %w", stage, err)
	}

	m.uc.countFailure(stage)
	log.Error().Err(err).Str("stage", stage).Str("owner_id", m.ownerID).Msg("mutation failed")
	return &PersistenceError{Stage: stage, Err: err}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
