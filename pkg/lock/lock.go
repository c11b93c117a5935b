package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is already held.
var ErrNotAcquired = fmt.Errorf("lock already held")

// Locker acquires short-lived advisory locks.
type Locker interface {
	// Acquire takes the named lock and returns a release function.
	// Returns ErrNotAcquired when another holder owns it.
	Acquire(ctx context.Context, key string) (func(), error)
}

// RedisLocker implements Locker with SET NX EX against a shared Redis.
// The TTL guards against a crashed holder wedging the lock forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker builds a locker with the given key prefix and TTL.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: prefix}
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	full := l.prefix + ":" + key
	ok, err := l.client.SetNX(ctx, full, 1, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", full, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	release := func() {
		// Best effort; the TTL reclaims the lock if the delete is lost.
		_ = l.client.Del(context.Background(), full).Err()
	}
	return release, nil
}
