package explorer

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

type FileService interface {
	Upload(ctx context.Context, userID uint64, in UploadInput) (*models.File, error)
	ListFiles(ctx context.Context, userID uint64, page, pageSize int) ([]models.File, int64, error)
	GetPresignedURLForDownload(ctx context.Context, userID uint64, fileID uint64) (string, error)
	SoftDelete(ctx context.Context, userID uint64, fileID uint64) error
}

// UploadInput 单个文件上传的参数
type UploadInput struct {
	FileName    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type fileService struct {
	fileRepo       repositories.FileRepository
	domainService  FileDomainService
	StorageService storage.StorageService
	cfg            *config.Config
}

var _ FileService = (*fileService)(nil)

func NewFileService(
	fileRepo repositories.FileRepository,
	domainService FileDomainService,
	storageService storage.StorageService,
	cfg *config.Config,
) FileService {
	return &fileService{
		fileRepo:       fileRepo,
		domainService:  domainService,
		StorageService: storageService,
		cfg:            cfg,
	}
}

// ObjectKey 文件在对象存储中的路径 user-<id>/<category>/<uuid>-<name>
func ObjectKey(userID uint64, category, fileUUID, fileName string) string {
	return models.UserFolderPrefix(userID) + category + "/" + fileUUID + "-" + fileName
}

// cleanFileName 去掉客户端带来的目录部分, 空名或纯目录名视为非法
func cleanFileName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" || name == ".." || len(name) > 200 {
		return "", xerr.ErrFileNameInvalid
	}
	return name, nil
}

func (s *fileService) Upload(ctx context.Context, userID uint64, in UploadInput) (*models.File, error) {
	fileName, err := cleanFileName(in.FileName)
	if err != nil {
		return nil, err
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileUUID := uuid.NewString()
	category := models.CategoryForMime(contentType)
	bucket := s.StorageService.BucketName()
	key := ObjectKey(userID, category, fileUUID, fileName)

	res, err := s.StorageService.PutObject(ctx, bucket, key, in.Reader, in.Size, contentType)
	if err != nil {
		logger.Error("Upload: Failed to put object", zap.Uint64("userID", userID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("file service: failed to upload object: %w", xerr.ErrStorageError)
	}

	size := in.Size
	if res.Size > 0 {
		size = res.Size
	}
	file := &models.File{
		UUID:      fileUUID,
		UserID:    userID,
		FileName:  fileName,
		Category:  category,
		Size:      uint64(size),
		MimeType:  &contentType,
		OssBucket: &bucket,
		OssKey:    &key,
		Status:    models.StatusNormal,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		logger.Error("Upload: Failed to create file record", zap.Uint64("userID", userID), zap.Error(err))
		// 数据库写入失败时回滚已上传的对象
		if rmErr := s.StorageService.RemoveObject(ctx, bucket, key); rmErr != nil {
			logger.Warn("Upload: Failed to remove orphan object", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("file service: failed to create file record: %w", xerr.ErrDatabaseError)
	}

	logger.Info("Upload: File uploaded", zap.Uint64("userID", userID), zap.Uint64("fileID", file.ID), zap.String("category", category))
	return file, nil
}

func (s *fileService) ListFiles(ctx context.Context, userID uint64, page, pageSize int) ([]models.File, int64, error) {
	files, total, err := s.fileRepo.FindByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("file service: %w", xerr.ErrDatabaseError)
	}
	return files, total, nil
}

func (s *fileService) GetPresignedURLForDownload(ctx context.Context, userID uint64, fileID uint64) (string, error) {
	// 1. 验证文件是否存在且用户有权访问
	file, err := s.domainService.CheckFile(ctx, userID, fileID)
	if err != nil {
		return "", err
	}

	// 2. 从配置中获取预签名URL的有效期
	expiry := time.Duration(s.cfg.Storage.PresignedURLExpiry) * time.Minute

	// 3. 调用存储服务生成预签名URL
	presignedURL, err := s.StorageService.PresignGetObject(ctx, *file.OssBucket, *file.OssKey, expiry, file.FileName)
	if err != nil {
		logger.Error("GetPresignedURLForDownload: Failed to generate presigned URL",
			zap.Uint64("fileID", file.ID),
			zap.Error(err))
		return "", fmt.Errorf("file service: failed to generate presigned URL: %w", xerr.ErrStorageError)
	}

	logger.Info("GetPresignedURLForDownload: Successfully generated presigned URL",
		zap.Uint64("fileID", fileID),
		zap.Uint64("userID", userID))

	return presignedURL, nil
}

// SoftDelete 只删除数据库记录, 对象保留. 指向该文件的分享随之不再签发下载
func (s *fileService) SoftDelete(ctx context.Context, userID uint64, fileID uint64) error {
	if _, err := s.domainService.CheckFile(ctx, userID, fileID); err != nil {
		return err
	}
	if err := s.fileRepo.SoftDelete(ctx, fileID); err != nil {
		logger.Error("SoftDelete: Failed to delete file", zap.Uint64("fileID", fileID), zap.Error(err))
		return fmt.Errorf("file service: %w", err)
	}
	logger.Info("SoftDelete: File moved to recycle bin", zap.Uint64("fileID", fileID), zap.Uint64("userID", userID))
	return nil
}
