package lock

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
)

// Factory creates lockers for the configured backend: redis when a client
// is available, in-process otherwise
type Factory struct {
	client *redis.Client
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithRedis makes the factory create redis lockers
func WithRedis(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Distributed reports whether lockers are shared across replicas
func (f *Factory) Distributed() bool {
	return f.client != nil
}

// Locker creates a locker whose locks expire after ttl (redis only) and
// whose Lock waits at most wait.
// WARNING: in-process lockers do not coordinate replicas; run a single
// instance without redis.
func (f *Factory) Locker(ttl, wait time.Duration) appguarda.Locker {
	if f.client != nil {
		return NewRedisLocker(f.client, ttl, wait, f.logger)
	}
	return NewMemoryLocker(wait)
}
