package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	limiter := &RateLimiter{RDB: rdb}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := limiter.Allow(ctx, "global:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := limiter.Allow(ctx, "global:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.True(t, res.ResetIn > 0 && res.ResetIn <= time.Minute)

	// 其他客户端不受影响
	other, err := limiter.Allow(ctx, "global:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	mr.FastForward(time.Minute + time.Second)
	res, err = limiter.Allow(ctx, "global:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Count)
}

func TestCache_GetSetFlush(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := &Cache{RDB: rdb}
	ctx := context.Background()

	var got []string
	hit, err := cache.Get(ctx, "meal:1:20240309", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "meal:1:20240309", []string{"밥", "국"}, time.Hour))
	hit, err = cache.Get(ctx, "meal:1:20240309", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"밥", "국"}, got)

	assert.True(t, mr.Exists(CachePrefix+"meal:1:20240309"))
	assert.Equal(t, time.Hour, mr.TTL(CachePrefix+"meal:1:20240309"))

	mr.FastForward(time.Hour)
	hit, err = cache.Get(ctx, "meal:1:20240309", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "meal:1:20240310", []string{"빵"}, time.Hour))
	require.NoError(t, cache.Set(ctx, "bus:stops:1", []string{"정문"}, time.Hour))
	require.NoError(t, mr.Set("ratelimit:keep", "1"))
	ok, err := cache.Exists(ctx, "bus:stops:1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "bus:stops:1"))
	ok, err = cache.Exists(ctx, "bus:stops:1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := cache.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	ok, err = cache.Exists(ctx, "meal:1:20240310")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("ratelimit:keep"))
}

func TestEventRepository_MarkDone(t *testing.T) {
	_, rdb := newTestRedis(t)
	events := &EventRepository{RDB: rdb}
	ctx := context.Background()

	first, err := events.MarkDone(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := events.MarkDone(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, events.Unmark(ctx, "ev-1"))
	retry, err := events.MarkDone(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestDistLock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	lock := &DistLock{RDB: rdb}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "score-refresh", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "score-refresh", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 别人的 token 释放不掉
	require.NoError(t, lock.Release(ctx, "score-refresh", "b"))
	assert.True(t, mr.Exists("lock:score-refresh"))

	require.NoError(t, lock.Release(ctx, "score-refresh", "a"))
	assert.False(t, mr.Exists("lock:score-refresh"))
}

func TestPhoneRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	phone := &PhoneRepository{RDB: rdb}
	ctx := context.Background()

	ok, err := phone.AcquireCooldown(ctx, "01012345678", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = phone.AcquireCooldown(ctx, "01012345678", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, phone.ReleaseCooldown(ctx, "01012345678"))
	ok, err = phone.AcquireCooldown(ctx, "01012345678", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := phone.FailedAttempts(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for i := 0; i < 2; i++ {
		_, err = phone.AddFailedAttempt(ctx, "tok", 10*time.Minute)
		require.NoError(t, err)
	}
	n, err = phone.FailedAttempts(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.TTL("phone:attempt:tok") > 0)
}
