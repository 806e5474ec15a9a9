package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/mantadrive/mantadrive/internal/config"
)

// DirectoryContentType 目录占位对象的类型, 对象名以 / 结尾
const DirectoryContentType = "application/x-directory"

// StorageService 定义了通用的文件存储操作接口
type StorageService interface {
	// 上传文件到指定存储桶
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error)
	// 从指定存储桶删除文件
	RemoveObject(ctx context.Context, bucketName, objectName string) error
	// 检查存储桶是否存在
	IsBucketExist(ctx context.Context, bucketName string) (bool, error)
	// 创建存储桶
	MakeBucket(ctx context.Context, bucketName string) error
	// PresignGetObject 生成只针对单个对象的限时 GET 链接, downloadName 非空时作为下载文件名
	PresignGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, downloadName string) (string, error)
	// BucketName 配置中的默认存储桶
	BucketName() string
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string // 对象哈希值
}

// ContentDisposition 生成附件下载头, 文件名按 RFC 6266 编码
func ContentDisposition(downloadName string) string {
	if downloadName == "" {
		return "attachment"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": downloadName})
}

// ErrInvalidStorageType 配置了未知的存储类型
var ErrInvalidStorageType = errors.New("invalid storageType")

func NewStorageService(ctx context.Context, cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStorageService(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorageService(&cfg.AliyunOSS)
	case "s3":
		return NewS3StorageService(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStorageType, cfg.Storage.Type)
	}
}
