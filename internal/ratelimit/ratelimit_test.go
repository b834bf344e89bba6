package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenBucketBurstThenDeny(t *testing.T) {
	_, client := newRedis(t)
	bucket := NewTokenBucket(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := bucket.Allow(ctx, "k", 0.01, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2, res.Limit)
	}

	res, err := bucket.Allow(ctx, "k", 0.01, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, 100*time.Second, res.RetryAfter)

	// other keys have their own bucket
	res, err = bucket.Allow(ctx, "other", 0.01, 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	var nilBucket *TokenBucket
	_, err := nilBucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, client := newRedis(t)
	bucket := NewTokenBucket(client)
	_, err = bucket.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = bucket.Allow(context.Background(), "k", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestLockerOnlyReleasesOwnToken(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "sweep", "someone-else"))
	assert.True(t, mr.Exists("sweep"))

	require.NoError(t, locker.Release(ctx, "sweep", token))
	assert.False(t, mr.Exists("sweep"))

	_, ok, err = locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerExpires(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	_, ok, err := locker.TryLock(ctx, "sweep", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "sweep", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithLock(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	var innerErr error
	err := locker.WithLock(ctx, "job", time.Minute, func(ctx context.Context) error {
		innerErr = locker.WithLock(ctx, "job", time.Minute, func(context.Context) error { return nil })
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.ErrorIs(t, innerErr, ErrLockHeld)
	assert.False(t, mr.Exists("job"))

	var nilLocker *Locker
	assert.ErrorIs(t, nilLocker.WithLock(ctx, "job", time.Minute, func(context.Context) error { return nil }), ErrNotConfigured)
}

func TestWriteLimiter(t *testing.T) {
	limiter, err := NewWriteLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())
	res, err := limiter.Allow(context.Background(), "/api/eway-bills", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, client := newRedis(t)

	// redis alone does not turn throttling on
	limiter, err = NewWriteLimiter(config.Config{}, NewTokenBucket(client))
	require.NoError(t, err)
	assert.Nil(t, limiter)

	_, err = NewWriteLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, NewTokenBucket(client))
	assert.ErrorIs(t, err, ErrInvalidLimit)

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, WriteRate: 0.01, WriteBurst: 1}}
	limiter, err = NewWriteLimiter(cfg, NewTokenBucket(client))
	require.NoError(t, err)
	require.True(t, limiter.Enabled())

	res, err = limiter.Allow(context.Background(), "/api/eway-bills", "Alice")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// caller keys are case-insensitive
	res, err = limiter.Allow(context.Background(), "/api/eway-bills", "alice")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), "/api/invoices/bulk-status", "alice")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
