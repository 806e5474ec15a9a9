package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

// FileDomainService 文件领域服务，处理文件相关的业务逻辑
type FileDomainService interface {
	// ValidateFile 只检查文件状态和权限,不返回文件
	ValidateFile(userID uint64, file *models.File) error
	// CheckFile 检查文件状态和权限,并返回正常状态的文件
	CheckFile(ctx context.Context, userID uint64, fileID uint64) (*models.File, error)
}

type fileDomainService struct {
	fileRepo repositories.FileRepository
}

// NewFileDomainService 创建文件领域服务实例
func NewFileDomainService(fileRepo repositories.FileRepository) FileDomainService {
	return &fileDomainService{
		fileRepo: fileRepo,
	}
}

func (s *fileDomainService) ValidateFile(userID uint64, file *models.File) error {
	if file == nil {
		return xerr.ErrFileNotFound
	}

	if file.UserID != userID {
		logger.Warn("File access denied",
			zap.Uint64("fileID", file.ID),
			zap.Uint64("userID", userID),
			zap.Uint64("ownerID", file.UserID))
		return xerr.ErrPermissionDenied
	}

	if !file.IsAvailable() {
		logger.Warn("File is not in normal status",
			zap.Uint64("fileID", file.ID),
			zap.Uint8("status", file.Status))
		return xerr.ErrFileNotFound
	}

	return nil
}

func (s *fileDomainService) CheckFile(ctx context.Context, userID uint64, fileID uint64) (*models.File, error) {
	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, xerr.ErrFileNotFound) {
			logger.Warn("CheckFile: File not found in DB", zap.Uint64("fileID", fileID))
			return nil, xerr.ErrFileNotFound
		}
		logger.Error("CheckFile: Error retrieving file from DB", zap.Uint64("fileID", fileID), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve file from DB: %w", xerr.ErrDatabaseError)
	}

	if err := s.ValidateFile(userID, file); err != nil {
		return nil, err
	}
	return file, nil
}
