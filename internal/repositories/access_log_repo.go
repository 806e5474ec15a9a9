package repositories

import (
	"context"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"gorm.io/gorm"
)

// AccessLogRepository 分享访问审计日志
type AccessLogRepository interface {
	Create(ctx context.Context, entry *models.ShareAccessLog) error
	FindByShareID(ctx context.Context, shareID string, page, pageSize int) ([]models.ShareAccessLog, int64, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(ctx context.Context, entry *models.ShareAccessLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("写入访问日志失败: %w", err)
	}
	return nil
}

func (r *accessLogRepository) FindByShareID(ctx context.Context, shareID string, page, pageSize int) ([]models.ShareAccessLog, int64, error) {
	var logs []models.ShareAccessLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ShareAccessLog{}).Where("share_id = ?", shareID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计访问日志失败: %w", err)
	}
	err := query.Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询访问日志失败: %w", err)
	}
	return logs, total, nil
}
