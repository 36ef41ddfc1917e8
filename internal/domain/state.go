package domain

import "time"

// LedgerState holds the records a mutation has loaded, keyed by id.
type LedgerState struct {
	Accounts map[string]*Account
	Debts    map[string]*Debt
	Goals    map[string]*Goal
}

// NewLedgerState creates an empty state.
func NewLedgerState() *LedgerState {
	return &LedgerState{
		Accounts: make(map[string]*Account),
		Debts:    make(map[string]*Debt),
		Goals:    make(map[string]*Goal),
	}
}

// AddAccounts indexes accounts by id, ignoring nil entries.
func (s *LedgerState) AddAccounts(accounts ...*Account) {
	for _, a := range accounts {
		if a != nil {
			s.Accounts[a.ID] = a
		}
	}
}

// AddDebts indexes debts by id, ignoring nil entries.
func (s *LedgerState) AddDebts(debts ...*Debt) {
	for _, d := range debts {
		if d != nil {
			s.Debts[d.ID] = d
		}
	}
}

// AddGoals indexes goals by id, ignoring nil entries.
func (s *LedgerState) AddGoals(goals ...*Goal) {
	for _, g := range goals {
		if g != nil {
			s.Goals[g.ID] = g
		}
	}
}

// Clone deep-copies every loaded record.
func (s *LedgerState) Clone() *LedgerState {
	c := NewLedgerState()
	for _, a := range s.Accounts {
		c.AddAccounts(a.Clone())
	}
	for _, d := range s.Debts {
		c.AddDebts(d.Clone())
	}
	for _, g := range s.Goals {
		c.AddGoals(g.Clone())
	}
	return c
}

// Changes lists the records an Apply mutated, in delta order, and the deltas
// dropped because their target was not loaded.
type Changes struct {
	Accounts []*Account
	Debts    []*Debt
	Goals    []*Goal
	Orphans  []Delta
}

// IsEmpty reports whether nothing was written.
func (c Changes) IsEmpty() bool {
	return len(c.Accounts) == 0 && len(c.Debts) == 0 && len(c.Goals) == 0
}

// Apply adds each delta to its loaded record in place. Debt paid amounts and
// goal current amounts never go below zero; account balances are not clamped.
// Deltas should be merged first so each record appears once.
func (s *LedgerState) Apply(deltas []Delta, now time.Time) Changes {
	var changes Changes
	seen := make(map[Target]bool)

	for _, d := range deltas {
		switch d.Target.Kind {
		case TargetAccount:
			a, ok := s.Accounts[d.Target.ID]
			if !ok {
				changes.Orphans = append(changes.Orphans, d)
				continue
			}
			a.Balance = a.ApplyDelta(d.Amount)
			a.UpdatedAt = now
			if !seen[d.Target] {
				changes.Accounts = append(changes.Accounts, a)
			}
		case TargetDebt:
			debt, ok := s.Debts[d.Target.ID]
			if !ok {
				changes.Orphans = append(changes.Orphans, d)
				continue
			}
			debt.PaidAmount = debt.ApplyPayment(d.Amount)
			debt.UpdatedAt = now
			if !seen[d.Target] {
				changes.Debts = append(changes.Debts, debt)
			}
		case TargetGoal:
			g, ok := s.Goals[d.Target.ID]
			if !ok {
				changes.Orphans = append(changes.Orphans, d)
				continue
			}
			g.CurrentAmount = g.ApplyContribution(d.Amount)
			g.UpdatedAt = now
			if !seen[d.Target] {
				changes.Goals = append(changes.Goals, g)
			}
		default:
			changes.Orphans = append(changes.Orphans, d)
			continue
		}
		seen[d.Target] = true
	}

	return changes
}
