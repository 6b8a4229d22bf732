package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/angelmondragon/tradepost-backend/internal/locks"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
	"github.com/angelmondragon/tradepost-backend/pkg/metrics"
)

var scopeRank = map[locks.Scope]int{
	locks.ScopeInventory: 0,
	locks.ScopeTrade:     1,
	locks.ScopeCargo:     2,
}

// Guard acquires several aggregate locks in a stable order so concurrent
// operations touching overlapping aggregates cannot deadlock.
type Guard struct {
	locker  locks.Locker
	metrics *metrics.ReconcileMetrics
	logg    *logger.Logger
}

// NewGuard wires a Guard; metrics and logg may be nil.
func NewGuard(locker locks.Locker, m *metrics.ReconcileMetrics, logg *logger.Logger) (*Guard, error) {
	if locker == nil {
		return nil, errors.New("locker required")
	}
	return &Guard{locker: locker, metrics: m, logg: logg}, nil
}

// Lock acquires every key and returns a function releasing them in reverse order.
func (g *Guard) Lock(ctx context.Context, keys ...locks.Key) (func(), error) {
	ordered := OrderKeys(keys)
	held := make([]locks.Release, 0, len(ordered))

	unlock := func() {
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i](releaseCtx); err != nil && g.logg != nil {
				g.logg.Warn(g.logg.WithField(releaseCtx, "error", err.Error()), "lock release failed")
			}
		}
	}

	for _, key := range ordered {
		start := time.Now()
		release, err := g.locker.Acquire(ctx, key)
		g.metrics.ObserveLockWait(string(key.Scope), time.Since(start))
		if err != nil {
			unlock()
			if errors.Is(err, locks.ErrLockTimeout) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "resource is busy, retry shortly")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to acquire lock")
		}
		held = append(held, release)
	}
	return unlock, nil
}

// OrderKeys sorts keys Inventory → Trade → Cargo, then by id, and drops duplicates.
func OrderKeys(keys []locks.Key) []locks.Key {
	out := make([]locks.Key, 0, len(keys))
	seen := make(map[locks.Key]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := scopeRank[out[i].Scope], scopeRank[out[j].Scope]
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
