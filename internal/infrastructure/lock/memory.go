package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
)

// MemoryLocker is a keyed mutex for single-instance deployments.
// Locks do not expire; they live until released or the process exits.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
	wait time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates a MemoryLocker. Lock gives up after wait;
// a zero wait blocks until the context ends.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		keys: make(map[string]*keyLock),
		wait: wait,
	}
}

// Lock waits for key
func (l *MemoryLocker) Lock(ctx context.Context, key string) (appguarda.Unlock, error) {
	k := l.acquire(key)

	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case k.sem <- struct{}{}:
		return l.unlocker(key, k), nil
	case <-waitCtx.Done():
		l.drop(key, k)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", appguarda.ErrLockNotObtained, key)
	}
}

// TryLock takes key only if it is free
func (l *MemoryLocker) TryLock(_ context.Context, key string) (appguarda.Unlock, error) {
	k := l.acquire(key)

	select {
	case k.sem <- struct{}{}:
		return l.unlocker(key, k), nil
	default:
		l.drop(key, k)
		return nil, fmt.Errorf("%w: %s", appguarda.ErrLockNotObtained, key)
	}
}

// Held reports how many keys are currently tracked
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *MemoryLocker) acquire(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	k, ok := l.keys[key]
	if !ok {
		k = &keyLock{sem: make(chan struct{}, 1)}
		l.keys[key] = k
	}
	k.refs++
	return k
}

func (l *MemoryLocker) drop(key string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k.refs--
	if k.refs == 0 {
		delete(l.keys, key)
	}
}

func (l *MemoryLocker) unlocker(key string, k *keyLock) appguarda.Unlock {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-k.sem
			l.drop(key, k)
		})
		return nil
	}
}

var _ appguarda.Locker = (*MemoryLocker)(nil)
