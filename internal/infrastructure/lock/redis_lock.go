package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// unlockScript deletes the key only if it still holds our token, so a holder
// whose lock expired cannot release the next holder's lock.
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is one SET NX EX lock on a redis key.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock does not block.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	_, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	return err
}

// RedisLocker hands out DistributedLocks, each with a fresh owner token.
type RedisLocker struct {
	client *redis.Client
	policy RetryPolicy
}

func NewRedisLocker(client *redis.Client, policy RetryPolicy) *RedisLocker {
	return &RedisLocker{client: client, policy: policy}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l := NewDistributedLock(r.client, key, uuid.NewString(), r.policy.Expiration)
	if err := l.Lock(ctx, r.policy.RetryInterval, r.policy.MaxRetries); err != nil {
		return nil, err
	}
	return func() {
		// the caller's ctx may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.Unlock(unlockCtx); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("release redis lock")
		}
	}, nil
}
