package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tradepost-backend/internal/locks"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
	"github.com/angelmondragon/tradepost-backend/pkg/metrics"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	guard, err := NewGuard(locks.NewLocalLocker(time.Second), nil, nil)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	engine, err := NewEngine(guard, RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}, metrics.NewReconcileMetrics(prometheus.NewRegistry()), logger.Nop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func TestEngineCompensatesEachFailedAttempt(t *testing.T) {
	engine := newTestEngine(t)
	var attempts, compensations int

	err := engine.Do(context.Background(), "test.op", []locks.Key{locks.TradeKey("t")}, func(ctx context.Context, undo *Undo) error {
		attempts++
		undo.Push("restore", func(context.Context) error {
			compensations++
			return nil
		})
		if attempts == 1 {
			return ErrStaleVersion
		}
		return pkgerrors.New(pkgerrors.CodeDependency, "store down")
	})

	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if attempts != 2 || compensations != 2 {
		t.Fatalf("expected 2 attempts and 2 compensations, got %d/%d", attempts, compensations)
	}
}

func TestEngineSuccessSkipsCompensation(t *testing.T) {
	engine := newTestEngine(t)
	called := false
	err := engine.Do(context.Background(), "test.ok", nil, func(ctx context.Context, undo *Undo) error {
		undo.Push("never", func(context.Context) error {
			called = true
			return nil
		})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("compensation must not run on success")
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Fatal("nil should be ok")
	}
	if Outcome(ErrStaleVersion) != "CONFLICT" {
		t.Fatalf("stale version should be a conflict, got %s", Outcome(ErrStaleVersion))
	}
	if Outcome(errors.New("raw")) != "INTERNAL_ERROR" {
		t.Fatalf("raw errors default to internal")
	}
	if Outcome(pkgerrors.New(pkgerrors.CodeInsufficientStock, "x")) != "INSUFFICIENT_STOCK" {
		t.Fatal("typed errors keep their code")
	}
}
