package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker guards keys within a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewMemoryLocker constructs an in-process lock manager.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), now: time.Now}
}

// Acquire takes the key unless it is held and not yet expired.
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, ok := l.held[key]; ok && now.Before(expiry) {
		return ErrNotAcquired
	}
	l.held[key] = now.Add(ttl)
	return nil
}

// Release frees the key.
func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
	return nil
}
