package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target.
type Goal struct {
	ID            string
	OwnerID       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      Currency
	Deadline      *time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining is what is left to save.
func (g *Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// ApplyContribution returns CurrentAmount after adding delta, never below zero.
func (g *Goal) ApplyContribution(delta decimal.Decimal) decimal.Decimal {
	return clampZero(g.CurrentAmount.Add(delta))
}

// Progress returns completion as a percentage, uncapped.
func (g *Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// Clone returns a copy safe to mutate.
func (g *Goal) Clone() *Goal {
	c := *g
	return &c
}
