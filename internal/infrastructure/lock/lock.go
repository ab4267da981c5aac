package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ============================================================================
// Operation lock
// ============================================================================
//
// Every mutating operation runs while holding one lock key, which gives the
// global ordering the components rely on: no two operations interleave.
//
// RedisLocker is used when several instances share the database.
// LocalLocker is used by a single instance and by tests.
//
// ============================================================================

var ErrLockFailed = errors.New("acquire lock failed")

// Locker acquires the named lock and returns the function that releases it.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker serializes callers of the same key inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RetryPolicy bounds how long a distributed lock is waited for.
type RetryPolicy struct {
	Expiration    time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}
