package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EventDonePrefix = "event:done"
	EventDoneTTL    = 7 * 24 * time.Hour
	LockKeyPrefix   = "lock"
)

// EventRepository 消费者幂等标记
type EventRepository struct {
	RDB *redis.Client
}

// MarkDone 第一次标记返回 true；重复投递返回 false
func (r *EventRepository) MarkDone(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf("%s:%s", EventDonePrefix, eventID)
	return r.RDB.SetNX(ctx, key, 1, EventDoneTTL).Result()
}

// Unmark 处理失败时撤销标记，让重投可以再次处理
func (r *EventRepository) Unmark(ctx context.Context, eventID string) error {
	key := fmt.Sprintf("%s:%s", EventDonePrefix, eventID)
	return r.RDB.Del(ctx, key).Err()
}

// DistLock 多实例部署时保证定时任务只在一个实例上跑
type DistLock struct {
	RDB *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func (l *DistLock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s", LockKeyPrefix, name)
	return l.RDB.SetNX(ctx, key, token, ttl).Result()
}

// Release 用lua保证只释放自己持有的锁
func (l *DistLock) Release(ctx context.Context, name, token string) error {
	key := fmt.Sprintf("%s:%s", LockKeyPrefix, name)
	return releaseScript.Run(ctx, l.RDB, []string{key}, token).Err()
}
