package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PhoneCooldownPrefix = "phone:cooldown"
	PhoneAttemptPrefix  = "phone:attempt"
	MaxVerifyAttempts   = 5
)

// PhoneRepository 短信重发冷却和验证码错误次数
type PhoneRepository struct {
	RDB *redis.Client
}

// AcquireCooldown 冷却期内返回 false
func (r *PhoneRepository) AcquireCooldown(ctx context.Context, phone string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s", PhoneCooldownPrefix, phone)
	return r.RDB.SetNX(ctx, key, 1, ttl).Result()
}

// ReleaseCooldown 短信发送失败时释放，允许立即重试
func (r *PhoneRepository) ReleaseCooldown(ctx context.Context, phone string) error {
	key := fmt.Sprintf("%s:%s", PhoneCooldownPrefix, phone)
	return r.RDB.Del(ctx, key).Err()
}

// AddFailedAttempt 返回当前 token 的累计错误次数
func (r *PhoneRepository) AddFailedAttempt(ctx context.Context, token string, ttl time.Duration) (int64, error) {
	key := fmt.Sprintf("%s:%s", PhoneAttemptPrefix, token)
	n, err := r.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = r.RDB.Expire(ctx, key, ttl).Err()
	}
	return n, nil
}

func (r *PhoneRepository) FailedAttempts(ctx context.Context, token string) (int64, error) {
	key := fmt.Sprintf("%s:%s", PhoneAttemptPrefix, token)
	n, err := r.RDB.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
