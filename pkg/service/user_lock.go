package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrLockNotAcquired is returned when a lock stays held past the retry budget
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisLockerConfig
}

type RedisLockerConfig struct {
	// TTL bounds how long a crashed holder can block others
	TTL time.Duration
	// MaxWait bounds total acquisition time
	MaxWait time.Duration
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 3 * time.Second
	}
	return &RedisLocker{
		client: client,
		cfg:    cfg,
	}
}

// Lock blocks until key is held or MaxWait elapses. The returned func
// releases the lock.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = l.cfg.MaxWait

	operation := func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to acquire lock %s: %w", key, err))
		}
		if !ok {
			return ErrLockNotAcquired
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		logrus.Warnf("could not acquire lock %s: %v", key, err)
		return nil, err
	}

	unlock := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			logrus.Errorf("failed to release lock %s: %v", key, err)
			return fmt.Errorf("failed to release lock: %w", err)
		}
		return nil
	}
	return unlock, nil
}
