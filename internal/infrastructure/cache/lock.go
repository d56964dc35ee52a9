package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stockreturn/pkg/logger"
)

// Guard is a Redis lock that lets one process at a time run a job.
type Guard struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewGuard creates a guard for key. The ttl bounds how long a crashed
// holder keeps others out.
func NewGuard(client *redis.Client, key string, ttl time.Duration) *Guard {
	return &Guard{locker: redislock.New(client), key: key, ttl: ttl}
}

// TryAcquire obtains the lock without waiting. ok is false when another
// process holds it.
func (g *Guard) TryAcquire(ctx context.Context) (release func(), ok bool, err error) {
	lock, err := g.locker.Obtain(ctx, g.key, g.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain lock %s: %w", g.key, err)
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "release lock failed", "key", g.key, "error", err)
		}
	}, true, nil
}
