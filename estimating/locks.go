package estimating

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// lockTable hands out one exclusive lock per estimate id. Entries are
// dropped once nobody holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*estimateLock
}

type estimateLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*estimateLock)}
}

// acquire blocks until the estimate lock is held, ctx is done, or timeout
// elapses. The returned func releases the lock.
func (t *lockTable) acquire(ctx context.Context, estimateID string, timeout time.Duration) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[estimateID]
	if !ok {
		l = &estimateLock{sem: semaphore.NewWeighted(1)}
		t.locks[estimateID] = l
	}
	l.refs++
	t.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		t.unref(estimateID, l)
		return nil, fmt.Errorf("%w: estimate %s: %v", ErrConcurrencyConflict, estimateID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			t.unref(estimateID, l)
		})
	}, nil
}

func (t *lockTable) unref(estimateID string, l *estimateLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, estimateID)
	}
}

// held reports how many callers currently hold or wait for the lock.
func (t *lockTable) held(estimateID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.locks[estimateID]; ok {
		return l.refs
	}
	return 0
}
