package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sangkips/atelier-api/pkg/logger"
)

// RedisConfig configures a RedisLocker
type RedisConfig struct {
	TTL     time.Duration // how long a lock survives a crashed holder
	Wait    time.Duration // how long Lock keeps retrying before giving up
	Backoff time.Duration // pause between attempts
}

// RedisLocker is a Locker shared by every API replica pointed at the same Redis
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
	log    *logger.Logger
}

// NewRedisLocker wraps a go-redis client (or anything implementing redis.Scripter)
func NewRedisLocker(client redislock.RedisClient, cfg RedisConfig, log *logger.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 5 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 50 * time.Millisecond
	}
	return &RedisLocker{client: redislock.New(client), cfg: cfg, log: log}
}

func (r *RedisLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalizeKeys(keys)

	waitCtx, cancel := context.WithTimeout(ctx, r.cfg.Wait)
	defer cancel()

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		// Release must not depend on the caller's context, which may already be cancelled
		releaseCtx, done := context.WithTimeout(context.Background(), r.cfg.Wait)
		defer done()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.Warn("failed to release redis lock", "key", held[i].Key(), "error", err)
			}
		}
	}

	for _, key := range keys {
		l, err := r.client.Obtain(waitCtx, key, r.cfg.TTL, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(r.cfg.Backoff),
		})
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
			}
			return nil, err
		}
		held = append(held, l)
	}

	done := false
	return func() {
		if done {
			return
		}
		done = true
		release()
	}, nil
}
