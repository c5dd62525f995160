// Package lock provides named, expiring run locks.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const releaseTimeout = 5 * time.Second

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds the lock as a redis key with an expiry, so that holders on
// different replicas exclude each other.
type RedisLocker struct {
	client redis.UniversalClient
	log    zerolog.Logger
}

func NewRedisLocker(client redis.UniversalClient, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		log:    log.With().Str("component", "lock").Logger(),
	}
}

// TryLock returns a release func when the lock was acquired, or nil when
// another holder owns it.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Error().
				Err(err).
				Str("lock", key).
				Dur("expires_in", ttl).
				Msg("failed to release lock, it stays held until expiry")
		}
	}, nil
}

// LocalLocker is an in-process locker for single-replica deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, nil
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
