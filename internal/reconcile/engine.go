package reconcile

import (
	"context"
	"errors"

	"github.com/angelmondragon/tradepost-backend/internal/locks"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
	"github.com/angelmondragon/tradepost-backend/pkg/metrics"
)

// Step is one attempt of a reconciliation operation. Writes that succeed
// register their compensation on undo.
type Step func(ctx context.Context, undo *Undo) error

// Engine runs multi-record operations under ordered locks with stale-version
// retries and compensation on failure.
type Engine struct {
	guard   *Guard
	policy  RetryPolicy
	metrics *metrics.ReconcileMetrics
	logg    *logger.Logger
}

// NewEngine wires an Engine. metrics may be nil.
func NewEngine(guard *Guard, policy RetryPolicy, m *metrics.ReconcileMetrics, logg *logger.Logger) (*Engine, error) {
	if guard == nil {
		return nil, errors.New("guard required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Engine{guard: guard, policy: policy, metrics: m, logg: logg}, nil
}

// Do holds keys for the duration of each attempt of step.
func (e *Engine) Do(ctx context.Context, operation string, keys []locks.Key, step Step) error {
	ctx = e.logg.WithField(ctx, "operation", operation)

	policy := e.policy
	policy.OnRetry = func(attempt uint64) {
		e.metrics.IncRetry(operation)
		e.logg.Info(e.logg.WithField(ctx, "attempt", attempt), "reconcile.retry")
	}

	err := Retry(ctx, policy, func(ctx context.Context) error {
		unlock, err := e.guard.Lock(ctx, keys...)
		if err != nil {
			return err
		}
		defer unlock()

		undo := &Undo{}
		if err := step(ctx, undo); err != nil {
			e.compensate(ctx, operation, undo, err)
			return err
		}
		return nil
	})

	e.metrics.ObserveOperation(operation, Outcome(err))
	return err
}

func (e *Engine) compensate(ctx context.Context, operation string, undo *Undo, cause error) {
	if undo.Len() == 0 {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"steps": undo.Names(),
		"cause": cause.Error(),
	})
	e.metrics.IncCompensation(operation)
	if err := undo.Rollback(ctx); err != nil {
		e.logg.Error(ctx, "reconcile.compensation_failed", err)
		return
	}
	e.logg.Warn(ctx, "reconcile.compensated")
}

// Outcome is the metrics label for an operation result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ErrStaleVersion) {
		return string(pkgerrors.CodeConflict)
	}
	return string(pkgerrors.CodeOf(err))
}
