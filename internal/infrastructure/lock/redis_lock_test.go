package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockerAcquireAndConflict(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, RetryPolicy{
		Expiration:    10 * time.Second,
		RetryInterval: 5 * time.Millisecond,
		MaxRetries:    3,
	})

	release, err := locker.Acquire(ctx, "ledger")
	require.NoError(t, err)
	assert.True(t, mr.Exists("ledger"))

	_, err = locker.Acquire(ctx, "ledger")
	require.ErrorIs(t, err, ErrLockFailed)

	release()
	assert.False(t, mr.Exists("ledger"))

	release, err = locker.Acquire(ctx, "ledger")
	require.NoError(t, err)
	release()
}

func TestDistributedLockUnlockChecksOwner(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	holder := NewDistributedLock(client, "ledger", "holder", 10*time.Second)
	ok, err := holder.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	stranger := NewDistributedLock(client, "ledger", "stranger", 10*time.Second)
	ok, err = stranger.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, stranger.Unlock(ctx))
	value, err := mr.Get("ledger")
	require.NoError(t, err)
	assert.Equal(t, "holder", value)

	require.NoError(t, holder.Unlock(ctx))
	assert.False(t, mr.Exists("ledger"))
}

func TestDistributedLockExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	first := NewDistributedLock(client, "ledger", "first", time.Second)
	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	second := NewDistributedLock(client, "ledger", "second", time.Second)
	require.NoError(t, second.Lock(ctx, time.Millisecond, 1))

	// an expired holder must not release the new holder's lock
	require.NoError(t, first.Unlock(ctx))
	assert.True(t, mr.Exists("ledger"))
}

func TestRedisLockerHonoursContext(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewRedisLocker(client, RetryPolicy{
		Expiration:    10 * time.Second,
		RetryInterval: 50 * time.Millisecond,
		MaxRetries:    100,
	})

	release, err := locker.Acquire(context.Background(), "ledger")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "ledger")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
