package record

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisLocker(rdb, 5*time.Second), mr
}

func TestRedisLockerSerializesAppends(t *testing.T) {
	l, _ := newTestLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := l.Acquire(ctx, "ana", "wordle"); !errors.Is(err, ErrAppendInFlight) {
		t.Fatalf("want ErrAppendInFlight, got %v", err)
	}

	// A different (owner, game) pair is not blocked.
	release2, err := l.Acquire(ctx, "ana", "nerdle")
	if err != nil {
		t.Fatalf("other game: %v", err)
	}
	release2()

	release()
	release3, err := l.Acquire(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("after release: %v", err)
	}
	release3()
}

func TestRedisLockerReleaseIgnoresStolenLock(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Simulate TTL expiry and re-acquisition by another instance.
	mr.FastForward(6 * time.Second)
	release2, err := l.Acquire(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("re-acquire after expiry: %v", err)
	}

	// The stale holder's release must not delete the new holder's lock.
	release()
	if _, err := l.Acquire(ctx, "ana", "wordle"); !errors.Is(err, ErrAppendInFlight) {
		t.Fatalf("stale release stole the lock: %v", err)
	}
	release2()
}

func TestMutexLocker(t *testing.T) {
	l := NewMutexLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "ana", "wordle")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	done := make(chan struct{})
	go func() {
		r, err := l.Acquire(ctx, "ana", "wordle")
		if err == nil {
			r()
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should block until release")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}
