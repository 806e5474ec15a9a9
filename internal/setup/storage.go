package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"go.uber.org/zap"
)

// InitStorage 初始化配置的存储服务并确保存储桶存在
func InitStorage(ctx context.Context, cfg *config.Config) (storage.StorageService, error) {
	svc, err := storage.NewStorageService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化存储服务失败: %w", err)
	}
	logger.Info("存储服务已选择并初始化", zap.String("type", cfg.Storage.Type))

	if err := EnsureBucket(ctx, svc, svc.BucketName()); err != nil {
		return nil, err
	}
	return svc, nil
}

// EnsureBucket 检查并创建存储桶
func EnsureBucket(ctx context.Context, svc storage.StorageService, bucketName string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := svc.IsBucketExist(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶存在性失败: %w", err)
	}
	if exists {
		logger.Info("存储桶已存在", zap.String("bucketName", bucketName))
		return nil
	}

	logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", bucketName))
	if err := svc.MakeBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	return nil
}
