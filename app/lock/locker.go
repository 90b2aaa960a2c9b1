package lock

import (
	"context"
	"errors"
	"time"
)

var ErrAlreadyHeld = errors.New("lock already held by this process")
var ErrNotAcquired = errors.New("lock not acquired")

// Locker abstracts try-lock implementations. Acquire never waits for a
// competing holder.
type Locker interface {
	// Acquire attempts to lock a key for the given TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	// Release frees the lock for the given key.
	Release(ctx context.Context, key string) error
}

// IsContended reports whether err means someone else holds the key.
func IsContended(err error) bool {
	return errors.Is(err, ErrNotAcquired) || errors.Is(err, ErrAlreadyHeld)
}

// RunExclusive runs fn while holding key. It returns ran=false without calling
// fn when the key is already held. The lock is released with a fresh context
// so a cancelled run still frees it.
func RunExclusive(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if err := locker.Acquire(ctx, key, ttl); err != nil {
		if IsContended(err) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = locker.Release(context.Background(), key)
	}()

	return true, fn(ctx)
}
