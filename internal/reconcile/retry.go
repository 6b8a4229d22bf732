package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 20 * time.Millisecond
	maxBackoff        = 500 * time.Millisecond
)

// RetryPolicy bounds how often a whole operation is re-run after a stale version.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	// OnRetry runs before each re-attempt; attempt starts at 1.
	OnRetry func(attempt uint64)
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	limit := p.MaxRetries
	if limit == 0 {
		limit = defaultMaxRetries
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(maxBackoff, b)
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(limit, b)
}

// Retry runs fn and re-runs it only when it fails with ErrStaleVersion. Any
// other error is returned immediately. Exhausted retries surface as CONFLICT.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var attempt uint64
	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		if attempt > 0 && policy.OnRetry != nil {
			policy.OnRetry(attempt)
		}
		attempt++
		err := fn(ctx)
		if errors.Is(err, ErrStaleVersion) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, ErrStaleVersion) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "record was modified concurrently, retry the request")
	}
	return err
}
