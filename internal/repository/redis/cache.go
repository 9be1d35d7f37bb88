package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const CachePrefix = "cache:"

// Cache JSON 序列化的键值缓存，所有键带 cache: 前缀
type Cache struct {
	RDB *redis.Client
}

// Get 未命中返回 false
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.RDB.Get(ctx, CachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, CachePrefix+key, raw, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = CachePrefix + k
	}
	return c.RDB.Del(ctx, full...).Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.RDB.Exists(ctx, CachePrefix+key).Result()
	return n > 0, err
}

// Flush 只清理缓存前缀下的键，不动限流和事件标记；返回删除数量
func (c *Cache) Flush(ctx context.Context) (int, error) {
	iter := c.RDB.Scan(ctx, 0, CachePrefix+"*", 500).Iterator()
	var batch []string
	total := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := c.RDB.Del(ctx, batch...).Err(); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return total, err
	}
	if len(batch) > 0 {
		if err := c.RDB.Del(ctx, batch...).Err(); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
