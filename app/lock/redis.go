package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dispatch:lock:"

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type RedisLocker struct {
	client redis.UniversalClient
	mu     sync.Mutex
	held   map[string]string
}

// NewRedisLocker constructs a Redis-based lock manager shared by every
// dispatcher replica.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client: client,
		held:   make(map[string]string),
	}
}

// Acquire sets the lock key with a TTL if absent and remembers the owner token.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	if _, exists := l.held[key]; exists {
		l.mu.Unlock()
		return ErrAlreadyHeld
	}
	l.mu.Unlock()

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.held[key] = token
	l.mu.Unlock()
	return nil
}

// Release deletes the lock key only if this process still owns it.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.held[key]
	if ok {
		delete(l.held, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	return l.client.Eval(ctx, releaseScript, []string{keyPrefix + key}, token).Err()
}
