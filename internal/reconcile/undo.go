package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// Undo is a stack of compensating writes for an operation that spans several
// records without a shared transaction.
type Undo struct {
	steps []undoStep
}

// Push registers a compensation for a write that has already succeeded.
func (u *Undo) Push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// Len reports the number of pending compensations.
func (u *Undo) Len() int {
	return len(u.steps)
}

// Names lists pending compensations in the order Rollback runs them.
func (u *Undo) Names() []string {
	names := make([]string, 0, len(u.steps))
	for i := len(u.steps) - 1; i >= 0; i-- {
		names = append(names, u.steps[i].name)
	}
	return names
}

// Rollback runs every step LIFO, even after failures, and clears the stack.
// Cancellation of ctx does not stop compensation.
func (u *Undo) Rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var err error
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if stepErr := step.fn(ctx); stepErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", step.name, stepErr))
		}
	}
	u.steps = nil
	return err
}
