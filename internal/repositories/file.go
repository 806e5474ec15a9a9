package repositories

import (
	"context"

	"github.com/mantadrive/mantadrive/internal/models"
)

// FileRepository 文件数据访问接口
// 分享下载路径每次都会按 ID 读取文件, 因此可以在数据库实现外再包一层缓存
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	// FindByID 包含已软删除的文件, 文件不存在时返回 xerr.ErrFileNotFound
	FindByID(ctx context.Context, id uint64) (*models.File, error)
	FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.File, int64, error)
	SoftDelete(ctx context.Context, id uint64) error
}
