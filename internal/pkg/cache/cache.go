package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss key 不存在或 Hash 为空
var ErrCacheMiss = errors.New("缓存未命中,key不存在")

// Cache 文件元数据缓存和校验限流共用的最小接口
type Cache interface {
	// HGetAll 读取整个 Hash, 不存在时返回 ErrCacheMiss
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HSetWithTTL 写入多个 field 并重置过期时间, 两步在同一事务中执行
	HSetWithTTL(ctx context.Context, key string, fields map[string]any, expiration time.Duration) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// Incr 计数加一并刷新过期时间, 返回计数后的值
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// CacheTTL 文件元数据缓存的基础过期时间, 写入时再加随机抖动
const CacheTTL = 10 * time.Minute

// NotFoundTTL 空值标记的过期时间
const NotFoundTTL = time.Minute

// NotFoundField 空值缓存标记, 防止缓存穿透
const NotFoundField = "__NOT_FOUND__"

func GenerateFileMetadataKey(fileID uint64) string {
	return fmt.Sprintf("file:metadata:%d", fileID)
}

// GenerateVerifyAttemptKey 某个客户端在某一分钟内对某个分享的校验次数
func GenerateVerifyAttemptKey(shareID, clientIP string, window int64) string {
	return fmt.Sprintf("share:verify:%s:%s:%d", shareID, clientIP, window)
}
