package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShareRepository 分享记录存储, 是下载计数的唯一可信来源
type ShareRepository interface {
	Create(ctx context.Context, share *models.Share) error
	// FindByShareID 记录不存在时返回 xerr.ErrShareNotFound
	FindByShareID(ctx context.Context, shareID string) (*models.Share, error)
	// IncrementDownloadIfAllowed 在一次原子操作内检查状态, 过期时间和下载上限,
	// 全部满足才把 download_count 加一. 两种结果都返回操作后的记录
	IncrementDownloadIfAllowed(ctx context.Context, shareID string, now time.Time) (bool, *models.Share, error)
	// Revoke 逻辑删除, 只作用于可用记录, 记录保留用于审计
	Revoke(ctx context.Context, shareID string) error
	FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Share, int64, error)
	// MarkExpired 把已过期的可用记录标记为过期, 返回标记数量
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// storeErr 把驱动层错误包装成可重试的存储错误
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, xerr.ErrStoreUnavailable, err)
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository 创建基于 gorm 的分享存储
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// 创建新的数据库记录, 时间统一保存为 UTC
func (r *shareRepository) Create(ctx context.Context, share *models.Share) error {
	share.ExpiresAt = share.ExpiresAt.UTC()
	if !share.CreatedAt.IsZero() {
		share.CreatedAt = share.CreatedAt.UTC()
	}
	if err := r.db.WithContext(ctx).Create(share).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xerr.ErrShareAlreadyExists
		}
		logger.Error("Create: 创建分享记录失败", zap.String("shareID", share.ShareID), zap.Error(err))
		return storeErr("创建分享记录失败", err)
	}
	return nil
}

func (r *shareRepository) FindByShareID(ctx context.Context, shareID string) (*models.Share, error) {
	var share models.Share
	err := r.db.WithContext(ctx).Where("share_id = ?", shareID).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrShareNotFound
		}
		return nil, storeErr("查询分享链接失败", err)
	}
	return &share, nil
}

// IncrementDownloadIfAllowed 条件更新: 只有 WHERE 中全部条件成立时才会影响一行
func (r *shareRepository) IncrementDownloadIfAllowed(ctx context.Context, shareID string, now time.Time) (bool, *models.Share, error) {
	now = now.UTC()
	var granted bool
	var share models.Share

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Share{}).
			Where("share_id = ? AND status = ? AND expires_at > ?", shareID, models.ShareStatusActive, now).
			Where("max_downloads IS NULL OR download_count < max_downloads").
			Updates(map[string]any{
				"download_count": gorm.Expr("download_count + 1"),
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		granted = res.RowsAffected == 1
		return tx.Where("share_id = ?", shareID).First(&share).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, xerr.ErrShareNotFound
		}
		logger.Error("IncrementDownloadIfAllowed: 更新下载次数失败", zap.String("shareID", shareID), zap.Error(err))
		return false, nil, storeErr("更新下载次数失败", err)
	}
	return granted, &share, nil
}

func (r *shareRepository) Revoke(ctx context.Context, shareID string) error {
	res := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("share_id = ? AND status = ?", shareID, models.ShareStatusActive).
		Update("status", models.ShareStatusRevoked)
	if res.Error != nil {
		return storeErr("撤销分享失败", res.Error)
	}
	if res.RowsAffected == 0 {
		return xerr.ErrShareNotFound
	}
	return nil
}

// 查找特定用户的所有分享记录, 包含已撤销和已过期的
func (r *shareRepository) FindAllByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]models.Share, int64, error) {
	var shares []models.Share
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.WithContext(ctx).Model(&models.Share{}).Where("owner_id = ?", ownerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr("统计分享总数失败", err)
	}

	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).
		Preload("File", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Find(&shares).Error
	if err != nil {
		return nil, 0, storeErr("查询分享列表失败", err)
	}
	return shares, total, nil
}

func (r *shareRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("status = ? AND expires_at <= ?", models.ShareStatusActive, now.UTC()).
		Update("status", models.ShareStatusExpired)
	if res.Error != nil {
		return 0, storeErr("标记过期分享失败", res.Error)
	}
	return res.RowsAffected, nil
}
