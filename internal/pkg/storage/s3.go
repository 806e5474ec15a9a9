package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"go.uber.org/zap"
)

// S3StorageService AWS S3 或任意 S3 兼容服务
type S3StorageService struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     *config.S3Config
}

var _ StorageService = (*S3StorageService)(nil)

// NewS3StorageService 未配置 AccessKey 时使用默认凭证链 (环境变量, 实例角色等)
func NewS3StorageService(ctx context.Context, cfg *config.S3Config) (*S3StorageService, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = 5
			})
		}),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		logger.Error("加载 AWS 配置失败", zap.Error(err))
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 自定义 Endpoint (MinIO, Localstack 等) 使用 path-style
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 客户端初始化成功", zap.String("region", cfg.Region), zap.String("endpoint", cfg.Endpoint))
	return &S3StorageService{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

func (s *S3StorageService) BucketName() string {
	return s.cfg.BucketName
}

func (s *S3StorageService) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectName),
		Body:          reader,
		ContentLength: aws.Int64(objectSize),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("S3 上传文件失败: %w", err)
	}
	return PutObjectResult{
		Bucket: bucketName,
		Key:    objectName,
		Size:   objectSize,
		ETag:   aws.ToString(out.ETag),
	}, nil
}

func (s *S3StorageService) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("S3 删除文件失败: %w", err)
	}
	return nil
}

func (s *S3StorageService) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
		return false, nil
	}
	return false, fmt.Errorf("检查 S3 存储桶存在性失败: %w", err)
}

func (s *S3StorageService) MakeBucket(ctx context.Context, bucketName string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucketName)}
	// us-east-1 不允许显式指定 LocationConstraint
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}
	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			logger.Info("S3 存储桶已存在，无需创建", zap.String("bucket", bucketName))
			return nil
		}
		return fmt.Errorf("创建 S3 存储桶失败: %w", err)
	}
	logger.Info("S3 存储桶创建成功", zap.String("bucket", bucketName))
	return nil
}

func (s *S3StorageService) PresignGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, downloadName string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(bucketName),
		Key:                        aws.String(objectName),
		ResponseContentDisposition: aws.String(ContentDisposition(downloadName)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("生成 S3 预签名URL失败: %w", err)
	}
	return req.URL, nil
}
