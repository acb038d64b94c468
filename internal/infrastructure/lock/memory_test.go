package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
)

func TestMemoryLocker_TryLock(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "guarda:sync")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "guarda:sync")
	assert.ErrorIs(t, err, appguarda.ErrLockNotObtained)

	other, err := l.TryLock(ctx, "guarda:line:1")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	again, err := l.TryLock(ctx, "guarda:sync")
	require.NoError(t, err)
	require.NoError(t, again(ctx))

	assert.Zero(t, l.Held())
}

func TestMemoryLocker_Lock(t *testing.T) {
	ctx := context.Background()

	t.Run("waits for the holder", func(t *testing.T) {
		l := NewMemoryLocker(time.Second)
		unlock, err := l.Lock(ctx, "k")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			second, err := l.Lock(ctx, "k")
			if err == nil {
				close(acquired)
				_ = second(ctx)
			}
		}()

		select {
		case <-acquired:
			t.Fatal("second Lock acquired while key was held")
		case <-time.After(30 * time.Millisecond):
		}

		require.NoError(t, unlock(ctx))
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("second Lock never acquired")
		}
	})

	t.Run("gives up after wait", func(t *testing.T) {
		l := NewMemoryLocker(20 * time.Millisecond)
		unlock, err := l.Lock(ctx, "k")
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		_, err = l.Lock(ctx, "k")
		assert.ErrorIs(t, err, appguarda.ErrLockNotObtained)
	})

	t.Run("cancelled context returns its error", func(t *testing.T) {
		l := NewMemoryLocker(time.Second)
		unlock, err := l.Lock(ctx, "k")
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = l.Lock(cctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("double unlock is harmless", func(t *testing.T) {
		l := NewMemoryLocker(time.Second)
		unlock, err := l.Lock(ctx, "k")
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
		require.NoError(t, unlock(ctx))
		assert.Zero(t, l.Held())
	})
}

func TestMemoryLocker_SerializesHolders(t *testing.T) {
	l := NewMemoryLocker(0)
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "guarda:line:7")
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = unlock(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Zero(t, l.Held())
}
