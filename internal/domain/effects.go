package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sign selects whether a transaction's effect is applied or reverted.
type Sign int

const (
	Apply  Sign = 1
	Revert Sign = -1
)

// TargetKind is the collection a delta writes to.
type TargetKind string

const (
	TargetAccount TargetKind = "account"
	TargetDebt    TargetKind = "debt"
	TargetGoal    TargetKind = "goal"
)

// Field is the numeric field a delta changes.
type Field string

const (
	FieldBalance       Field = "balance"
	FieldPaidAmount    Field = "paidAmount"
	FieldCurrentAmount Field = "currentAmount"
)

// Target identifies one record.
type Target struct {
	Kind TargetKind
	ID   string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}

// Delta is a signed change to one field of one record.
type Delta struct {
	Target Target
	Field  Field
	Amount decimal.Decimal
}

// ComputeDeltas returns the balance changes tx causes. With Revert every
// delta is negated.
func ComputeDeltas(tx *Transaction, sign Sign) []Delta {
	amount := tx.Amount
	var deltas []Delta

	switch d := tx.Details.(type) {
	case Income:
		deltas = []Delta{accountDelta(d.AccountID, amount)}
	case Expense:
		deltas = []Delta{accountDelta(d.AccountID, amount.Neg())}
	case Transfer:
		deltas = []Delta{
			accountDelta(d.FromAccountID, amount.Neg()),
			accountDelta(d.ToAccountID, tx.ConvertedAmount()),
		}
	case DebtPayment:
		deltas = []Delta{
			accountDelta(d.AccountID, amount.Neg()),
			debtDelta(d.DebtID, amount),
		}
	case CreditCardPayment:
		deltas = []Delta{
			accountDelta(d.AccountID, amount.Neg()),
			debtDelta(d.DebtID, amount),
		}
	case GoalContribution:
		deltas = []Delta{
			accountDelta(d.AccountID, amount.Neg()),
			{Target: Target{Kind: TargetGoal, ID: d.GoalID}, Field: FieldCurrentAmount, Amount: amount},
		}
	case LoanCollection:
		deltas = []Delta{
			accountDelta(d.AccountID, amount),
			debtDelta(d.DebtID, amount),
		}
	}

	if sign == Revert {
		for i := range deltas {
			deltas[i].Amount = deltas[i].Amount.Neg()
		}
	}
	return deltas
}

// MergeDeltas sums deltas per target and field, keeping first-seen order and
// dropping entries whose net is zero.
func MergeDeltas(sets ...[]Delta) []Delta {
	type key struct {
		target Target
		field  Field
	}

	index := make(map[key]int)
	var merged []Delta
	for _, set := range sets {
		for _, d := range set {
			k := key{d.Target, d.Field}
			if i, ok := index[k]; ok {
				merged[i].Amount = merged[i].Amount.Add(d.Amount)
				continue
			}
			index[k] = len(merged)
			merged = append(merged, d)
		}
	}

	out := merged[:0]
	for _, d := range merged {
		if !d.Amount.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

func accountDelta(id string, amount decimal.Decimal) Delta {
	return Delta{Target: Target{Kind: TargetAccount, ID: id}, Field: FieldBalance, Amount: amount}
}

func debtDelta(id string, amount decimal.Decimal) Delta {
	return Delta{Target: Target{Kind: TargetDebt, ID: id}, Field: FieldPaidAmount, Amount: amount}
}
