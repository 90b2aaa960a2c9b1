package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisLockerAcquireRelease(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lockerA := NewRedisLocker(client)
	lockerB := NewRedisLocker(client)

	if err := lockerA.Acquire(context.Background(), "job:welcome", time.Minute); err != nil {
		t.Fatalf("Acquire A: %v", err)
	}
	if !mr.Exists(keyPrefix + "job:welcome") {
		t.Fatalf("expected namespaced lock key to exist")
	}
	if err := lockerB.Acquire(context.Background(), "job:welcome", time.Minute); err != ErrNotAcquired {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if err := lockerA.Release(context.Background(), "job:welcome"); err != nil {
		t.Fatalf("Release A: %v", err)
	}
	if err := lockerB.Acquire(context.Background(), "job:welcome", time.Minute); err != nil {
		t.Fatalf("Acquire B after release: %v", err)
	}
	if err := lockerB.Release(context.Background(), "job:welcome"); err != nil {
		t.Fatalf("Release B: %v", err)
	}
}

func TestRedisLockerExpires(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lockerA := NewRedisLocker(client)
	lockerB := NewRedisLocker(client)

	if err := lockerA.Acquire(context.Background(), "job:promo", time.Minute); err != nil {
		t.Fatalf("Acquire A: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if err := lockerB.Acquire(context.Background(), "job:promo", time.Minute); err != nil {
		t.Fatalf("Acquire B after expiry: %v", err)
	}
	// A's token no longer matches, so its release must not free B's lock.
	if err := lockerA.Release(context.Background(), "job:promo"); err != nil {
		t.Fatalf("Release A: %v", err)
	}
	if !mr.Exists(keyPrefix + "job:promo") {
		t.Fatalf("expected B's lock to survive A's release")
	}
}

func TestRedisLockerAlreadyHeld(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewRedisLocker(client)
	if err := locker.Acquire(context.Background(), "job:welcome", time.Minute); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := locker.Acquire(context.Background(), "job:welcome", time.Minute); err != ErrAlreadyHeld {
		t.Fatalf("expected ErrAlreadyHeld, got %v", err)
	}
}
