package share

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

// Grant 一次成功的下载签发
type Grant struct {
	DownloadRef        string
	DownloadCount      uint32
	DownloadsRemaining *uint32
	// ExpiresAt 分享本身的过期时间
	ExpiresAt time.Time
	// RefExpiresAt 下载链接的过期时间, 不会晚于 ExpiresAt
	RefExpiresAt time.Time
}

// Issuer 扣减下载次数并签发只针对单个对象的下载链接
type Issuer struct {
	repo    repositories.ShareRepository
	storage storage.StorageService
	policy  Policy
}

func NewIssuer(repo repositories.ShareRepository, storageService storage.StorageService, policy Policy) *Issuer {
	return &Issuer{repo: repo, storage: storageService, policy: policy}
}

// Issue 以存储的原子计数结果为准. 次数在签发时扣减, 下载中断不返还
func (i *Issuer) Issue(ctx context.Context, share *models.Share, file *models.File) (*Grant, error) {
	now := i.policy.now()
	// 剩余不足一秒的分享按已过期处理
	if share.ExpiresAt.Sub(now) < time.Second {
		return nil, xerr.ErrShareExpired
	}

	granted, record, err := i.repo.IncrementDownloadIfAllowed(ctx, share.ShareID, now)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, classify(record, now)
	}

	ttl := record.ExpiresAt.Sub(now)
	if i.policy.DownloadURLTTL > 0 && i.policy.DownloadURLTTL < ttl {
		ttl = i.policy.DownloadURLTTL
	}
	ttl = ttl.Truncate(time.Second)

	ref, err := i.downloadRef(ctx, record, file, ttl)
	if err != nil {
		logger.Error("Issue: 签发下载链接失败",
			zap.String("shareID", record.ShareID),
			zap.Uint64("fileID", file.ID),
			zap.Error(err))
		return nil, fmt.Errorf("签发下载链接失败: %w", xerr.ErrStorageError)
	}

	return &Grant{
		DownloadRef:        ref,
		DownloadCount:      record.DownloadCount,
		DownloadsRemaining: record.DownloadsRemaining(),
		ExpiresAt:          record.ExpiresAt,
		RefExpiresAt:       now.Add(ttl),
	}, nil
}

func (i *Issuer) downloadRef(ctx context.Context, share *models.Share, file *models.File, ttl time.Duration) (string, error) {
	if i.policy.DemoMode {
		return "demo://" + share.ShareID + "/" + url.PathEscape(file.FileName), nil
	}
	return i.storage.PresignGetObject(ctx, *file.OssBucket, *file.OssKey, ttl, file.FileName)
}

// classify 根据原子操作返回的记录判断拒绝原因
func classify(record *models.Share, now time.Time) error {
	switch {
	case record == nil, record.Status == models.ShareStatusRevoked:
		return xerr.ErrShareNotFound
	case record.Status == models.ShareStatusExpired || record.IsExpired(now):
		return xerr.ErrShareExpired
	case record.LimitReached():
		return xerr.ErrShareLimitExceeded
	default:
		return xerr.ErrShareNotFound
	}
}
