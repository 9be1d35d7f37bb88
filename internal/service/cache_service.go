package service

import (
	"context"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService 后台手动管理 JSON 缓存（餐食、公交站）
type CacheService struct {
	cache *redis.Cache
	log   *zap.Logger
}

func NewCacheService(rdb *goredis.Client, log *zap.Logger) *CacheService {
	return &CacheService{cache: &redis.Cache{RDB: rdb}, log: log}
}

func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.cache.Exists(ctx, key)
	if err != nil {
		return false, pkg.Internal(err)
	}
	return ok, nil
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return pkg.NotFound("캐시를 찾을 수 없습니다.")
	}
	return pkg.Internal(s.cache.Delete(ctx, key))
}

func (s *CacheService) Flush(ctx context.Context) (int, error) {
	n, err := s.cache.Flush(ctx)
	if err != nil {
		return n, pkg.Internal(err)
	}
	s.log.Info("cache flushed", zap.Int("keys", n))
	return n, nil
}
