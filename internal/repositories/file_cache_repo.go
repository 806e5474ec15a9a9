package repositories

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/cache"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/mapper"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
)

// cachedFileRepository 在数据库实现外缓存文件元数据, 缓存故障只记录日志
type cachedFileRepository struct {
	next  FileRepository
	cache cache.Cache
}

// NewCachedFileRepository creates a new cachedFileRepository instance.
func NewCachedFileRepository(next FileRepository, c cache.Cache) FileRepository {
	return &cachedFileRepository{
		next:  next,
		cache: c,
	}
}

func jitteredTTL() time.Duration {
	return cache.CacheTTL + time.Duration(rand.Intn(300))*time.Second
}

func (r *cachedFileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.next.Create(ctx, file); err != nil {
		return err
	}
	// 清除可能存在的空值标记
	if err := r.cache.Del(ctx, cache.GenerateFileMetadataKey(file.ID)); err != nil {
		logger.Warn("Create: Failed to clear file metadata cache", zap.Uint64("fileID", file.ID), zap.Error(err))
	}
	return nil
}

func (r *cachedFileRepository) FindByID(ctx context.Context, id uint64) (*models.File, error) {
	fileMetadataKey := cache.GenerateFileMetadataKey(id)

	resultMap, err := r.cache.HGetAll(ctx, fileMetadataKey)
	if err == nil {
		if _, ok := resultMap[cache.NotFoundField]; ok {
			return nil, xerr.ErrFileNotFound
		}
		file, err := mapper.HashToFile(resultMap)
		if err == nil {
			return file, nil
		}
		logger.Error("FindByID: Failed to map cached hash to models.File", zap.Uint64("id", id), zap.Error(err))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Error("FindByID: Error getting file hash from cache", zap.Uint64("id", id), zap.Error(err))
	}

	file, err := r.next.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, xerr.ErrFileNotFound) {
			_ = r.cache.HSetWithTTL(ctx, fileMetadataKey, map[string]any{cache.NotFoundField: "1"}, cache.NotFoundTTL)
		}
		return nil, err
	}

	if err := r.cache.HSetWithTTL(ctx, fileMetadataKey, mapper.FileToHash(file), jitteredTTL()); err != nil {
		logger.Error("FindByID: Failed to cache file metadata", zap.Uint64("id", id), zap.Error(err))
	}
	return file, nil
}

// 列表不缓存, 直接透传
func (r *cachedFileRepository) FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.File, int64, error) {
	return r.next.FindByUserID(ctx, userID, page, pageSize)
}

func (r *cachedFileRepository) SoftDelete(ctx context.Context, id uint64) error {
	if err := r.next.SoftDelete(ctx, id); err != nil {
		return err
	}
	// 删除后立即失效, 避免已删除文件的分享继续签发下载
	if err := r.cache.Del(ctx, cache.GenerateFileMetadataKey(id)); err != nil {
		logger.Error("SoftDelete: Failed to invalidate file metadata cache", zap.Uint64("fileID", id), zap.Error(err))
	}
	return nil
}
