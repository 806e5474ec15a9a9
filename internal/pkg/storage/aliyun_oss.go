package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"go.uber.org/zap"
)

type AliyunOSSStorageService struct {
	client *oss.Client
	cfg    *config.AliyunOSSConfig // 阿里云OSS的配置信息
}

var _ StorageService = (*AliyunOSSStorageService)(nil)

// NewAliyunOSSStorageService 创建并返回一个 AliyunOSSStorageService 实例
func NewAliyunOSSStorageService(cfg *config.AliyunOSSConfig) (*AliyunOSSStorageService, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	ossClient, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	logger.Info("阿里云OSS客户端初始化成功", zap.String("endpoint", cfg.Endpoint))
	return &AliyunOSSStorageService{
		client: ossClient,
		cfg:    cfg,
	}, nil
}

func (s *AliyunOSSStorageService) BucketName() string {
	return s.cfg.BucketName
}

// OSS SDK 不接收 context, 调用前检查是否已取消
func (s *AliyunOSSStorageService) bucket(ctx context.Context, bucketName string) (*oss.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucket, err := s.client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}
	return bucket, nil
}

func (s *AliyunOSSStorageService) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error) {
	bucket, err := s.bucket(ctx, bucketName)
	if err != nil {
		return PutObjectResult{}, err
	}
	if err := bucket.PutObject(objectName, reader, oss.ContentType(contentType)); err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传文件失败: %w", err)
	}
	// PutObject 不返回对象信息, 使用传入的大小
	return PutObjectResult{
		Bucket: bucketName,
		Key:    objectName,
		Size:   objectSize,
	}, nil
}

func (s *AliyunOSSStorageService) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	bucket, err := s.bucket(ctx, bucketName)
	if err != nil {
		return err
	}
	if err := bucket.DeleteObject(objectName); err != nil {
		return fmt.Errorf("阿里云OSS删除文件失败: %w", err)
	}
	return nil
}

func (s *AliyunOSSStorageService) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	found, err := s.client.IsBucketExist(bucketName)
	if err != nil {
		return false, fmt.Errorf("检查阿里云OSS存储桶存在性失败: %w", err)
	}
	return found, nil
}

func (s *AliyunOSSStorageService) MakeBucket(ctx context.Context, bucketName string) error {
	// 分享依赖预签名链接, 桶保持私有
	err := s.client.CreateBucket(bucketName, oss.ACL(oss.ACLPrivate))
	if err != nil {
		if ossErr, ok := err.(oss.ServiceError); ok && (ossErr.Code == "BucketAlreadyExists" || ossErr.Code == "BucketAlreadyOwnedByYou") {
			logger.Info("阿里云OSS存储桶已存在，无需创建", zap.String("bucket", bucketName))
			return nil
		}
		return fmt.Errorf("创建阿里云OSS存储桶失败: %w", err)
	}
	logger.Info("阿里云OSS存储桶创建成功", zap.String("bucket", bucketName))
	return nil
}

func (s *AliyunOSSStorageService) PresignGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, downloadName string) (string, error) {
	bucket, err := s.bucket(ctx, bucketName)
	if err != nil {
		return "", err
	}
	secs := int64(expiry.Seconds())
	if secs < 1 {
		secs = 1
	}
	signedURL, err := bucket.SignURL(objectName, oss.HTTPGet, secs,
		oss.ResponseContentDisposition(ContentDisposition(downloadName)))
	if err != nil {
		return "", fmt.Errorf("生成阿里云OSS预签名URL失败: %w", err)
	}
	return signedURL, nil
}
