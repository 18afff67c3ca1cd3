package locking_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/durafsm/pkg/locking"
	"github.com/aretw0/durafsm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLocker counts lock/unlock calls.
type recordingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	ttl     time.Duration
	err     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks.Add(1)
	l.ttl = ttl
	return func(ctx context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_SerializesSameKey(t *testing.T) {
	mgr := locking.NewManager()
	ctx := context.Background()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "race-test", func(ctx context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load(), "critical sections for one key must not overlap")
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := locking.NewManager(locking.WithLocker(locker), locking.WithTTL(5*time.Second))

	err := mgr.WithLock(context.Background(), "a1", func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)
}

func TestManager_LockerFailure(t *testing.T) {
	boom := errors.New("redis down")
	mgr := locking.NewManager(locking.WithLocker(&recordingLocker{err: boom}))

	called := false
	err := mgr.WithLock(context.Background(), "a1", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_PropagatesFnError(t *testing.T) {
	mgr := locking.NewManager()
	boom := errors.New("boom")

	err := mgr.WithLock(context.Background(), "a1", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}
