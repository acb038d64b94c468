package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/config"
)

// NewRedisClient connects to redis and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisLocker is a Locker shared by every replica. Locks expire after ttl
// so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

// NewRedisLocker creates a RedisLocker. Lock retries for up to wait.
func NewRedisLocker(client redislock.RedisClient, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

// Lock obtains key, retrying with backoff until the wait elapses
func (l *RedisLocker) Lock(ctx context.Context, key string) (appguarda.Unlock, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	// retry strategies keep state, so each call gets its own
	backoff := redislock.ExponentialBackoff(16*time.Millisecond, 256*time.Millisecond)
	lk, err := l.client.Obtain(waitCtx, key, l.ttl, &redislock.Options{RetryStrategy: backoff})
	return l.result(ctx, key, lk, err)
}

// TryLock obtains key without retrying
func (l *RedisLocker) TryLock(ctx context.Context, key string) (appguarda.Unlock, error) {
	lk, err := l.client.Obtain(ctx, key, l.ttl, nil)
	return l.result(ctx, key, lk, err)
}

func (l *RedisLocker) result(ctx context.Context, key string, lk *redislock.Lock, err error) (appguarda.Unlock, error) {
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) ||
			(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
			return nil, fmt.Errorf("%w: %s", appguarda.ErrLockNotObtained, key)
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Lock expired before release",
				zap.String("key", key),
				zap.Duration("ttl", l.ttl),
			)
			return nil
		}
		return err
	}, nil
}

var _ appguarda.Locker = (*RedisLocker)(nil)
