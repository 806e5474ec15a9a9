package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"go.uber.org/zap"
)

type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	resultMap, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		logger.Error("HGetAll: 读取 Redis Hash 失败", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("HGetAll 操作失败: %w", err)
	}
	// key 不存在时 go-redis 返回空 map
	if len(resultMap) == 0 {
		return nil, ErrCacheMiss
	}
	return resultMap, nil
}

func (r *RedisCache) HSetWithTTL(ctx context.Context, key string, fields map[string]any, expiration time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("HSetWithTTL: 写入 Redis Hash 失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("HSet 操作失败: %w", err)
	}
	return nil
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logger.Error("Del: 删除 Redis 键失败", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("从 Redis 删除键失败: %w", err)
	}
	return nil
}

func (r *RedisCache) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// key 中已带窗口编号, 过期只用于回收
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Incr: Redis 计数失败", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("INCR 操作失败: %w", err)
	}
	return incr.Val(), nil
}
