package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const RateLimitPrefix = "ratelimit:"

// 固定窗口计数：第一次请求时设置窗口过期时间
var rateLimitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

type RateLimiter struct {
	RDB *redis.Client
}

type RateResult struct {
	Allowed   bool
	Count     int64
	Remaining int64
	ResetIn   time.Duration
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateResult, error) {
	res, err := rateLimitScript.Run(ctx, r.RDB, []string{RateLimitPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	count, ttl := res[0], res[1]
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return &RateResult{
		Allowed:   count <= int64(limit),
		Count:     count,
		Remaining: remaining,
		ResetIn:   time.Duration(ttl) * time.Millisecond,
	}, nil
}
