package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRedisLockTTL  = 30 * time.Second
	defaultRedisLockPoll = 25 * time.Millisecond
	defaultRedisLockWait = 5 * time.Second
)

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
	LockKey(scope, id string) string
}

// RedisOptions tunes RedisLocker.
type RedisOptions struct {
	TTL          time.Duration
	Wait         time.Duration
	PollInterval time.Duration
}

// RedisLocker implements Locker across processes using SETNX with a per-acquire
// owner token. The TTL bounds how long a crashed holder can block a key.
type RedisLocker struct {
	client redisStore
	opts   RedisOptions
}

// NewRedisLocker constructs a Redis-backed locker.
func NewRedisLocker(client redisStore, opts RedisOptions) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultRedisLockTTL
	}
	if opts.Wait <= 0 {
		opts.Wait = defaultRedisLockWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultRedisLockPoll
	}
	return &RedisLocker{client: client, opts: opts}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key Key) (Release, error) {
	redisKey := l.client.LockKey(string(key.Scope), key.ID)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.opts.Wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, owner, l.opts.TTL)
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return l.releaser(redisKey, owner), nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		timer := time.NewTimer(l.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaser(redisKey, owner string) Release {
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			// a false result means the TTL expired and another owner may hold the key now
			if _, delErr := l.client.DelIfEqual(ctx, redisKey, owner); delErr != nil {
				err = fmt.Errorf("release lock: %w", delErr)
			}
		})
		return err
	}
}
