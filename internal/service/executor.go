package service

import (
	"context"
	"time"

	"dailytrack/internal/infrastructure/lock"
	"dailytrack/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultLockKey = "dailytrack:lock:ledger"

// Executor runs mutating operations one at a time. Each operation holds the
// global lock and runs inside a single database transaction, so a failure at
// any step leaves no trace.
type Executor struct {
	db      *gorm.DB
	locker  lock.Locker
	lockKey string
	clock   func() time.Time
	metrics *metrics.Metrics
	log     *logrus.Entry
}

type Option func(*Executor)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

func WithLocker(locker lock.Locker, key string) Option {
	return func(e *Executor) {
		e.locker = locker
		if key != "" {
			e.lockKey = key
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func NewExecutor(db *gorm.DB, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		locker:  lock.NewLocalLocker(),
		lockKey: DefaultLockKey,
		clock:   time.Now,
		log:     logrus.WithField("component", "executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) DB() *gorm.DB { return e.db }

func (e *Executor) Now() time.Time { return e.clock() }

// Run executes fn under the lock. now is read once, after the lock is held,
// so operations observe non-decreasing times.
func (e *Executor) Run(ctx context.Context, component, operation string, fn func(tx *gorm.DB, now time.Time) error) error {
	start := time.Now()

	release, err := e.locker.Acquire(ctx, e.lockKey)
	if err != nil {
		e.metrics.ObserveOperation(component, operation, "busy", time.Since(start))
		return ErrBusy.wrap(err)
	}
	defer release()

	now := e.clock()
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, now)
	})

	result := "ok"
	if err != nil {
		kind := KindOf(err)
		result = string(kind)
		entry := e.log.WithFields(logrus.Fields{
			"component": component,
			"operation": operation,
		}).WithError(err)
		if kind == KindInternal {
			entry.Error("operation failed")
		} else {
			entry.Debug("operation rejected")
		}
	}
	e.metrics.ObserveOperation(component, operation, result, time.Since(start))
	return err
}
