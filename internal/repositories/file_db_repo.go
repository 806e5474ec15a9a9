package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dbFileRepository 直接访问数据库的 FileRepository 实现
type dbFileRepository struct {
	db *gorm.DB
}

// NewDBFileRepository creates a new DBFileRepository instance.
func NewDBFileRepository(db *gorm.DB) FileRepository {
	return &dbFileRepository{db: db}
}

func (r *dbFileRepository) Create(ctx context.Context, file *models.File) error {
	err := r.db.WithContext(ctx).Create(file).Error
	if err != nil {
		logger.Error("Create: Failed to create file in DB", zap.Error(err), zap.Uint64("userID", file.UserID), zap.String("fileName", file.FileName))
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *dbFileRepository) FindByID(ctx context.Context, id uint64) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).Unscoped().First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &file, nil
}

func (r *dbFileRepository) FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.File, int64, error) {
	var files []models.File
	var total int64

	query := r.db.WithContext(ctx).Model(&models.File{}).Where("user_id = ? AND status = ?", userID, models.StatusNormal)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计文件总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&files).Error
	if err != nil {
		logger.Error("Error finding files from DB", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to find files: %w", err)
	}
	return files, total, nil
}

// SoftDelete 标记删除状态并设置 deleted_at
func (r *dbFileRepository) SoftDelete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.File{}).Where("id = ?", id).Update("status", models.StatusDeleted)
		if res.Error != nil {
			return fmt.Errorf("failed to update file status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return xerr.ErrFileNotFound
		}
		if err := tx.Delete(&models.File{}, id).Error; err != nil {
			logger.Error("SoftDelete: Failed to soft delete file", zap.Uint64("fileID", id), zap.Error(err))
			return fmt.Errorf("failed to soft delete file: %w", err)
		}
		return nil
	})
}
