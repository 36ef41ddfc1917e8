package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// Compensations collects undo steps as writes succeed and runs them newest
// first when the mutation fails.
type Compensations struct {
	steps  []compensation
	logger zerolog.Logger
}

// NewCompensations creates an empty list.
func NewCompensations(logger zerolog.Logger) *Compensations {
	return &Compensations{logger: logger}
}

// Add registers undo under name.
func (c *Compensations) Add(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, undo: undo})
}

// Len returns the number of registered steps.
func (c *Compensations) Len() int {
	return len(c.steps)
}

// Run executes every step in reverse registration order. A failing step does
// not stop the rest; all failures are joined.
func (c *Compensations) Run(ctx context.Context) error {
	var errs []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			c.logger.Error().Err(err).Str("step", step.name).Msg("compensation failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		c.logger.Debug().Str("step", step.name).Msg("compensation applied")
	}
	c.steps = nil
	return errors.Join(errs...)
}
