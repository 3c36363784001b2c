package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Minute), mr
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()
	key := WatchKey(7)

	err := locker.WithLock(ctx, key, func(ctx context.Context) error {
		assert.True(t, mr.Exists(key))
		inner := locker.WithLock(ctx, key, func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	ran := false
	require.NoError(t, locker.WithLock(ctx, key, func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestRedisLockerKeepsForeignLock(t *testing.T) {
	locker, mr := newRedisLocker(t)
	key := WatchKey(8)

	err := locker.WithLock(context.Background(), key, func(context.Context) error {
		require.NoError(t, mr.Set(key, "someone-else"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerPropagatesError(t *testing.T) {
	locker, mr := newRedisLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), WatchKey(1), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(WatchKey(1)))
}

func TestRedisLockerRenewsWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisLocker(client, 300*time.Millisecond)
	key := WatchKey(11)

	err = locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		mr.FastForward(200 * time.Millisecond)
		time.Sleep(250 * time.Millisecond)
		mr.FastForward(200 * time.Millisecond)

		assert.True(t, mr.Exists(key), "lease must outlive its ttl while fn runs")
		assert.NoError(t, ctx.Err())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))
}

func TestRedisLockerStopsRenewingForeignLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisLocker(client, 300*time.Millisecond)
	key := WatchKey(12)

	err = locker.WithLock(context.Background(), key, func(context.Context) error {
		require.NoError(t, mr.Set(key, "someone-else"))
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, mr.TTL(key))
}

func TestNewRedisClientFailsWithoutServer(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "redis://127.0.0.1:1")
	assert.Error(t, err)

	_, err = NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	key := WatchKey(3)

	err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		return locker.WithLock(ctx, key, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	assert.NoError(t, locker.WithLock(context.Background(), key, func(context.Context) error { return nil }))
}
