package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateStore 是限流与登录锁定用到的 Redis 命令子集。
type rateStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func incrWithTTL(ctx context.Context, client rateStore, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// overHourlyLimit 按小时窗口计数；Redis 不可用或未配置时放行。
func overHourlyLimit(ctx context.Context, client rateStore, prefix string, limit int) bool {
	if client == nil || limit <= 0 {
		return false
	}
	key := prefix + ":" + time.Now().UTC().Format("2006010215")
	count, err := incrWithTTL(ctx, client, key, time.Hour)
	if err != nil {
		return false
	}
	return count > int64(limit)
}
