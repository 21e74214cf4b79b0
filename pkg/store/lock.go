package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker provides per-SHA-256 advisory locking so chain-of-custody,
// metadata, and analysis writes are serialized per artifact (§5). Lock is
// expected to block until acquired or ctx is cancelled; Unlock always
// succeeds for a held lock.
type Locker interface {
	Lock(ctx context.Context, sha256 string) (func(), error)
}

// InProcessLocker guards artifacts within a single process using one
// mutex per SHA-256. Sufficient for a single orchestrator instance; a
// multi-process deployment should use RedisLocker instead.
type InProcessLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewInProcessLocker() *InProcessLocker {
	return &InProcessLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *InProcessLocker) Lock(ctx context.Context, sha256 string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[sha256]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sha256] = m
	}
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()

	select {
	case <-done:
		return m.Unlock, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisLocker implements Locker with Redis SETNX-style locking
// (github.com/redis/go-redis/v9's SetNX), for deployments that run more
// than one orchestrator process against the same store root — something
// the in-process locker cannot coordinate across.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, prefix: "evidence-toolkit:lock:"}
}

func (l *RedisLocker) Lock(ctx context.Context, sha256 string) (func(), error) {
	key := l.prefix + sha256
	backoff := 25 * time.Millisecond
	for {
		ok, err := l.client.SetNX(ctx, key, 1, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("store: redis lock sha256=%s: %w", sha256, err)
		}
		if ok {
			return func() { l.client.Del(context.Background(), key) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			if backoff < 500*time.Millisecond {
				backoff *= 2
			}
		}
	}
}
