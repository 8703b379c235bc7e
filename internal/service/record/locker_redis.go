package record

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAppendInFlight is returned when another append for the same
// (owner, game) pair currently holds the lock.
var ErrAppendInFlight = errors.New("another record append is in flight for this game")

// Locker serializes appends per (owner, game) pair so two concurrent ingests
// cannot both derive their streaks from the same prior record.
type Locker interface {
	Acquire(ctx context.Context, owner, gameID string) (release func(), err error)
}

const defaultLockTTL = 10 * time.Second

// RedisLocker implements the per-key append lock on Redis, for deployments
// running more than one instance.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func lockKey(owner, gameID string) string {
	return "ingest:lock:" + strings.TrimSpace(owner) + "|" + strings.TrimSpace(gameID)
}

func (l *RedisLocker) Acquire(ctx context.Context, owner, gameID string) (func(), error) {
	key := lockKey(owner, gameID)
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAppendInFlight
	}

	release := func() {
		// Only the holder may delete; an expired lock may have been
		// re-acquired by someone else.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cur, err := l.rdb.Get(rctx, key).Result(); err == nil && cur == token {
			_ = l.rdb.Del(rctx, key).Err()
		}
	}
	return release, nil
}

// MutexLocker is the single-process fallback used when no Redis is
// configured: one mutex per (owner, game) key.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MutexLocker) Acquire(ctx context.Context, owner, gameID string) (func(), error) {
	key := lockKey(owner, gameID)
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
