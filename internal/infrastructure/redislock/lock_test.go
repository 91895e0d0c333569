package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func client(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestAcquireIsExclusive(t *testing.T) {
	c, _ := client(t)
	ctx := context.Background()

	first := New(c, "test:lock")
	second := New(c, "test:lock")

	ok, err := first.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseAllowsReacquire(t *testing.T) {
	c, _ := client(t)
	ctx := context.Background()

	lock := New(c, "test:lock")
	ok, err := lock.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx))

	other := New(c, "test:lock")
	ok, err = other.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseIgnoresForeignLock(t *testing.T) {
	c, _ := client(t)
	ctx := context.Background()

	holder := New(c, "test:lock")
	ok, err := holder.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// A different instance releasing must not free the holder's lock.
	intruder := New(c, "test:lock")
	require.NoError(t, intruder.Release(ctx))

	ok, err = intruder.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "holder's lock must survive a foreign release")
}

func TestLockExpires(t *testing.T) {
	c, mr := client(t)
	ctx := context.Background()

	lock := New(c, "test:lock")
	ok, err := lock.Acquire(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	other := New(c, "test:lock")
	ok, err = other.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lock is free for the taking")
}
