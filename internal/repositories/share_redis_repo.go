package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/mapper"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
)

const (
	redisShareSeqKey    = "shares:seq"
	redisShareExpiryKey = "shares:expiry"
	redisSweepBatch     = 256
)

func generateShareKey(shareID string) string {
	return "share:" + shareID
}

func generateOwnerSharesKey(ownerID uint64) string {
	return fmt.Sprintf("shares:owner:%d", ownerID)
}

// KEYS: share hash, owner zset, id sequence, expiry zset
// ARGV: expire_at_ms, score, share_id, expires_at_ms, field/value pairs...
var createShareScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local id = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], 'id', id, unpack(ARGV, 5))
redis.call('PEXPIREAT', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('ZADD', KEYS[4], ARGV[4], ARGV[3])
return id
`)

// KEYS: share hash
// ARGV: now_ms, updated_at
// 返回 {granted, HGETALL}; 记录不存在时返回 {-1}
var incrementShareScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'status', 'expires_at_ms', 'max_downloads', 'download_count')
if not h[1] then
  return {-1}
end
local granted = 0
if h[1] == '1' and tonumber(ARGV[1]) < tonumber(h[2]) then
  local count = tonumber(h[4])
  if h[3] == '' or count < tonumber(h[3]) then
    redis.call('HSET', KEYS[1], 'download_count', tostring(count + 1), 'updated_at', ARGV[2])
    granted = 1
  end
end
return {granted, redis.call('HGETALL', KEYS[1])}
`)

// KEYS: share hash
// ARGV: updated_at
var revokeShareScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status ~= '1' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', '0', 'updated_at', ARGV[1])
return 1
`)

// KEYS: share hash, expiry zset
// ARGV: now_ms, updated_at, share_id
// 成员总会移出过期索引; 仍为可用状态且已过期时标记为 2
var markExpiredShareScript = redis.NewScript(`
redis.call('ZREM', KEYS[2], ARGV[3])
local h = redis.call('HMGET', KEYS[1], 'status', 'expires_at_ms')
if h[1] ~= '1' or tonumber(ARGV[1]) < tonumber(h[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'status', '2', 'updated_at', ARGV[2])
return 1
`)

// redisShareRepository 每条分享一个 Hash, 所有者索引用 ZSET
// 过期判断由脚本按 expires_at_ms 完成, key 的 TTL 只负责在保留期后回收
type redisShareRepository struct {
	client    *redis.Client
	retention time.Duration
}

var _ ShareRepository = (*redisShareRepository)(nil)

// NewRedisShareRepository retention 为过期后记录继续保留的时长
func NewRedisShareRepository(client *redis.Client, retention time.Duration) ShareRepository {
	return &redisShareRepository{client: client, retention: retention}
}

func (r *redisShareRepository) Create(ctx context.Context, share *models.Share) error {
	now := time.Now().UTC()
	share.ExpiresAt = share.ExpiresAt.UTC()
	if share.CreatedAt.IsZero() {
		share.CreatedAt = now
	}
	share.UpdatedAt = now

	fields := mapper.ShareToHash(share)
	delete(fields, "id")
	args := make([]any, 0, 4+len(fields)*2)
	args = append(args,
		share.ExpiresAt.Add(r.retention).UnixMilli(),
		share.CreatedAt.UnixMilli(),
		share.ShareID,
		share.ExpiresAt.UnixMilli(),
	)
	for k, v := range fields {
		args = append(args, k, v)
	}

	keys := []string{generateShareKey(share.ShareID), generateOwnerSharesKey(share.OwnerID), redisShareSeqKey, redisShareExpiryKey}
	id, err := createShareScript.Run(ctx, r.client, keys, args...).Int64()
	if err != nil {
		logger.Error("Create: 写入 Redis 分享记录失败", zap.String("shareID", share.ShareID), zap.Error(err))
		return storeErr("创建分享记录失败", err)
	}
	if id == 0 {
		return xerr.ErrShareAlreadyExists
	}
	share.ID = uint64(id)
	return nil
}

func (r *redisShareRepository) FindByShareID(ctx context.Context, shareID string) (*models.Share, error) {
	data, err := r.client.HGetAll(ctx, generateShareKey(shareID)).Result()
	if err != nil {
		return nil, storeErr("查询分享链接失败", err)
	}
	if len(data) == 0 {
		return nil, xerr.ErrShareNotFound
	}
	share, err := mapper.HashToShare(data)
	if err != nil {
		return nil, fmt.Errorf("解析分享记录失败: %w", err)
	}
	return share, nil
}

func (r *redisShareRepository) IncrementDownloadIfAllowed(ctx context.Context, shareID string, now time.Time) (bool, *models.Share, error) {
	now = now.UTC()
	res, err := incrementShareScript.Run(ctx, r.client,
		[]string{generateShareKey(shareID)},
		now.UnixMilli(), now.Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		logger.Error("IncrementDownloadIfAllowed: Redis 脚本执行失败", zap.String("shareID", shareID), zap.Error(err))
		return false, nil, storeErr("更新下载次数失败", err)
	}

	granted, ok := res[0].(int64)
	if !ok {
		return false, nil, fmt.Errorf("更新下载次数失败: 意外的脚本返回 %T", res[0])
	}
	if granted < 0 {
		return false, nil, xerr.ErrShareNotFound
	}
	if len(res) < 2 {
		return false, nil, fmt.Errorf("更新下载次数失败: 脚本未返回记录")
	}
	share, err := mapper.HashToShare(pairsToMap(res[1]))
	if err != nil {
		return false, nil, fmt.Errorf("解析分享记录失败: %w", err)
	}
	return granted == 1, share, nil
}

func (r *redisShareRepository) Revoke(ctx context.Context, shareID string) error {
	changed, err := revokeShareScript.Run(ctx, r.client,
		[]string{generateShareKey(shareID)},
		time.Now().UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return storeErr("撤销分享失败", err)
	}
	if changed == 0 {
		return xerr.ErrShareNotFound
	}
	return nil
}

func (r *redisShareRepository) FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Share, int64, error) {
	ownerKey := generateOwnerSharesKey(ownerID)
	total, err := r.client.ZCard(ctx, ownerKey).Result()
	if err != nil {
		return nil, 0, storeErr("统计分享总数失败", err)
	}

	start := int64((page - 1) * pageSize)
	ids, err := r.client.ZRevRange(ctx, ownerKey, start, start+int64(pageSize)-1).Result()
	if err != nil {
		return nil, 0, storeErr("查询分享列表失败", err)
	}
	if len(ids) == 0 {
		return []models.Share{}, total, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, generateShareKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, storeErr("查询分享列表失败", err)
	}

	shares := make([]models.Share, 0, len(ids))
	var stale []any
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			// 保留期已过, Hash 已被回收
			stale = append(stale, ids[i])
			continue
		}
		share, err := mapper.HashToShare(data)
		if err != nil {
			logger.Warn("FindAllByOwner: 跳过无法解析的分享记录", zap.String("shareID", ids[i]), zap.Error(err))
			continue
		}
		shares = append(shares, *share)
	}
	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, ownerKey, stale...).Err(); err != nil {
			logger.Warn("FindAllByOwner: 清理所有者索引失败", zap.Uint64("ownerID", ownerID), zap.Error(err))
		}
		total -= int64(len(stale))
	}
	return shares, total, nil
}

// MarkExpired 按过期索引分批标记, 每条记录由脚本单独完成检查和写入
func (r *redisShareRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	nowMs := now.UnixMilli()
	updatedAt := now.Format(time.RFC3339Nano)
	by := &redis.ZRangeBy{Min: "-inf", Max: strconv.FormatInt(nowMs, 10), Count: redisSweepBatch}

	var marked int64
	for {
		ids, err := r.client.ZRangeByScore(ctx, redisShareExpiryKey, by).Result()
		if err != nil {
			return marked, storeErr("查询过期分享失败", err)
		}
		for _, id := range ids {
			n, err := markExpiredShareScript.Run(ctx, r.client,
				[]string{generateShareKey(id), redisShareExpiryKey},
				nowMs, updatedAt, id,
			).Int64()
			if err != nil {
				logger.Error("MarkExpired: Redis 脚本执行失败", zap.String("shareID", id), zap.Error(err))
				return marked, storeErr("标记过期分享失败", err)
			}
			marked += n
		}
		if len(ids) < redisSweepBatch {
			return marked, nil
		}
	}
}

// pairsToMap 把 HGETALL 的 [k1, v1, k2, v2...] 转为 map
func pairsToMap(v any) map[string]string {
	items, _ := v.([]any)
	out := make(map[string]string, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		k, _ := items[i].(string)
		out[k] = toString(items[i+1])
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
