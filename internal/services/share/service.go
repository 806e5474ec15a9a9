package share

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/audit"
	"github.com/mantadrive/mantadrive/internal/pkg/keygen"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/mantadrive/mantadrive/internal/services/explorer"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// ShareService 定义了文件分享服务需要实现的接口
type ShareService interface {
	// CreateShare 为自己的文件创建分享链接
	CreateShare(ctx context.Context, userID uint64, in CreateShareInput) (*CreateShareResult, error)
	// VerifyShare 校验凭证, 通过后扣减次数并签发下载链接. 每次结果都会写入审计
	VerifyShare(ctx context.Context, shareID string, creds Credentials, client ClientInfo) (*Grant, error)
	// InspectShare 匿名访问者查看分享概要, 不扣减次数
	InspectShare(ctx context.Context, shareID string) (*ShareInfo, error)
	// RevokeShare 撤销一个分享链接, 只有所有者可以操作
	RevokeShare(ctx context.Context, userID uint64, shareID string) error
	// ListUserShares 列出指定用户创建的所有分享链接
	ListUserShares(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error)
	// GetShare 所有者查看分享详情, 包括终态
	GetShare(ctx context.Context, userID uint64, shareID string) (*models.Share, error)
	ListAccessLogs(ctx context.Context, userID uint64, shareID string, page, pageSize int) ([]models.ShareAccessLog, int64, error)
	// QRCode 返回分享链接的 PNG 二维码
	QRCode(ctx context.Context, userID uint64, shareID string) ([]byte, string, error)
	Policy() Policy
}

// CreateShareInput 创建分享的参数
type CreateShareInput struct {
	FileID            uint64
	AccessKey         *string
	GenerateAccessKey bool
	Password          *string
	ExpiresInMinutes  *int
	MaxDownloads      *uint32
}

// CreateShareResult AccessKey 只在创建时返回给所有者
type CreateShareResult struct {
	Share     *models.Share
	ShareURL  string
	AccessKey *string
}

// ClientInfo 审计使用的访问者信息
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ShareInfo 匿名可见的分享概要
type ShareInfo struct {
	ShareID            string
	State              string
	RequiresAccessKey  bool
	RequiresPassword   bool
	ExpiresAt          time.Time
	DownloadsRemaining *uint32
	FileName           string
	FileSize           uint64
	ContentType        string
}

const createShareAttempts = 3

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo     repositories.ShareRepository
	fileRepo      repositories.FileRepository
	accessLogRepo repositories.AccessLogRepository
	domainService explorer.FileDomainService
	validator     *Validator
	issuer        *Issuer
	recorder      audit.Recorder
	policy        Policy
}

var _ ShareService = (*shareService)(nil)

// NewShareService 创建一个新的 ShareService 实例, recorder 为 nil 时不记录审计
func NewShareService(
	shareRepo repositories.ShareRepository,
	fileRepo repositories.FileRepository,
	accessLogRepo repositories.AccessLogRepository,
	storageService storage.StorageService,
	recorder audit.Recorder,
	policy Policy,
) ShareService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if policy.KeyLength <= 0 {
		policy.KeyLength = keygen.DefaultLength
	}
	return &shareService{
		shareRepo:     shareRepo,
		fileRepo:      fileRepo,
		accessLogRepo: accessLogRepo,
		domainService: explorer.NewFileDomainService(fileRepo),
		validator:     NewValidator(shareRepo, policy),
		issuer:        NewIssuer(shareRepo, storageService, policy),
		recorder:      recorder,
		policy:        policy,
	}
}

func (s *shareService) Policy() Policy {
	return s.policy
}

// CreateShare 处理创建文件分享链接的业务逻辑
func (s *shareService) CreateShare(ctx context.Context, userID uint64, in CreateShareInput) (*CreateShareResult, error) {
	// 1. 验证文件是否存在，并且是否属于当前用户
	if _, err := s.domainService.CheckFile(ctx, userID, in.FileID); err != nil {
		return nil, err
	}

	ttl, err := s.policy.ttl(in.ExpiresInMinutes)
	if err != nil {
		return nil, err
	}
	if in.MaxDownloads != nil && *in.MaxDownloads == 0 {
		return nil, fmt.Errorf("max_downloads 必须大于 0: %w", xerr.ErrInvalidParams)
	}

	// 2. 访问码: 自定义优先, 否则按需生成
	var accessKey *string
	switch {
	case in.AccessKey != nil && *in.AccessKey != "":
		if !keygen.IsValidKey(*in.AccessKey) {
			return nil, fmt.Errorf("访问码只能包含字母和数字: %w", xerr.ErrInvalidParams)
		}
		key := *in.AccessKey
		accessKey = &key
	case in.GenerateAccessKey:
		key, err := keygen.GenerateKey(s.policy.KeyLength)
		if err != nil {
			return nil, fmt.Errorf("生成访问码失败: %w", err)
		}
		accessKey = &key
	}

	// 3. 如果设置了密码，对密码进行哈希处理
	var passwordHash *string
	if in.Password != nil && *in.Password != "" {
		hashed, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("密码处理失败: %w", err)
		}
		passwordHash = &hashed
	}

	now := s.policy.now()
	share := &models.Share{
		OwnerID:      userID,
		FileID:       in.FileID,
		AccessKey:    accessKey,
		PasswordHash: passwordHash,
		ExpiresAt:    now.Add(ttl),
		MaxDownloads: in.MaxDownloads,
		Status:       models.ShareStatusActive,
		CreatedAt:    now,
	}

	// 4. 保存记录, ShareID 冲突时重新生成
	for attempt := 1; ; attempt++ {
		share.ShareID = uuid.NewString()
		err = s.shareRepo.Create(ctx, share)
		if err == nil {
			break
		}
		if !errors.Is(err, xerr.ErrShareAlreadyExists) || attempt >= createShareAttempts {
			logger.Error("CreateShare: 创建分享链接记录失败", zap.Uint64("userID", userID), zap.Error(err))
			return nil, fmt.Errorf("创建分享链接失败: %w", err)
		}
	}

	logger.Info("CreateShare: 分享链接创建成功",
		zap.String("shareID", share.ShareID),
		zap.Uint64("fileID", in.FileID),
		zap.Bool("accessKey", accessKey != nil),
		zap.Bool("password", passwordHash != nil))

	return &CreateShareResult{
		Share:     share,
		ShareURL:  s.policy.ShareURL(share.ShareID),
		AccessKey: accessKey,
	}, nil
}

func (s *shareService) VerifyShare(ctx context.Context, shareID string, creds Credentials, client ClientInfo) (*Grant, error) {
	grant, err := s.verify(ctx, shareID, creds)

	entry := &models.ShareAccessLog{
		ShareID:   shareID,
		Outcome:   models.AccessOutcomeGranted,
		ClientIP:  client.IP,
		UserAgent: truncate(client.UserAgent, 255),
		CreatedAt: s.policy.now(),
	}
	if err != nil {
		entry.Outcome = models.AccessOutcomeDenied
		entry.Reason = xerr.Reason(err)
		if entry.Reason == "" {
			entry.Reason = "error"
		}
		if xerr.IsShareDenial(err) && !xerr.IsRetryable(err) {
			logger.Info("VerifyShare: 分享访问被拒绝", zap.String("shareID", shareID), zap.String("reason", entry.Reason))
		} else {
			logger.Error("VerifyShare: 分享校验失败", zap.String("shareID", shareID), zap.Error(err))
		}
	} else {
		entry.DownloadCount = grant.DownloadCount
		logger.Info("VerifyShare: 分享访问成功", zap.String("shareID", shareID), zap.Uint32("downloadCount", grant.DownloadCount))
	}
	if recErr := s.recorder.Record(ctx, entry); recErr != nil {
		logger.Warn("VerifyShare: 写入访问审计失败", zap.String("shareID", shareID), zap.Error(recErr))
	}
	return grant, err
}

func (s *shareService) verify(ctx context.Context, shareID string, creds Credentials) (*Grant, error) {
	share, err := s.validator.Validate(ctx, shareID, creds)
	if err != nil {
		return nil, err
	}
	file, err := s.sharedFile(ctx, share)
	if err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, share, file)
}

// sharedFile 文件被删除后分享随之失效
func (s *shareService) sharedFile(ctx context.Context, share *models.Share) (*models.File, error) {
	file := share.File
	if file == nil {
		var err error
		file, err = s.fileRepo.FindByID(ctx, share.FileID)
		if err != nil {
			if errors.Is(err, xerr.ErrFileNotFound) {
				return nil, xerr.ErrShareNotFound
			}
			return nil, fmt.Errorf("查询分享文件失败: %w: %w", xerr.ErrStoreUnavailable, err)
		}
	}
	if !file.IsAvailable() {
		return nil, xerr.ErrShareNotFound
	}
	return file, nil
}

func (s *shareService) InspectShare(ctx context.Context, shareID string) (*ShareInfo, error) {
	share, err := s.shareRepo.FindByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	now := s.policy.now()
	state := share.State(now)
	switch state {
	case models.ShareStateDeleted:
		return nil, xerr.ErrShareNotFound
	case models.ShareStateExpired:
		return nil, xerr.ErrShareExpired
	}
	file, err := s.sharedFile(ctx, share)
	if err != nil {
		return nil, err
	}
	return &ShareInfo{
		ShareID:            share.ShareID,
		State:              state,
		RequiresAccessKey:  share.HasAccessKey(),
		RequiresPassword:   share.HasPassword(),
		ExpiresAt:          share.ExpiresAt,
		DownloadsRemaining: share.DownloadsRemaining(),
		FileName:           file.FileName,
		FileSize:           file.Size,
		ContentType:        file.ContentType(),
	}, nil
}

// ownedShare 查询分享并检查所有者
func (s *shareService) ownedShare(ctx context.Context, userID uint64, shareID string) (*models.Share, error) {
	share, err := s.shareRepo.FindByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.OwnerID != userID {
		logger.Warn("ownedShare: 无权操作此分享", zap.String("shareID", shareID), zap.Uint64("userID", userID))
		return nil, xerr.ErrPermissionDenied
	}
	return share, nil
}

func (s *shareService) RevokeShare(ctx context.Context, userID uint64, shareID string) error {
	share, err := s.ownedShare(ctx, userID, shareID)
	if err != nil {
		return err
	}
	// 终态分享不能再被撤销
	switch share.State(s.policy.now()) {
	case models.ShareStateExpired:
		return xerr.ErrShareExpired
	case models.ShareStateLimitExhausted:
		return xerr.ErrShareLimitExceeded
	}
	if err := s.shareRepo.Revoke(ctx, shareID); err != nil {
		logger.Error("RevokeShare: 撤销分享失败", zap.String("shareID", shareID), zap.Error(err))
		return err
	}
	logger.Info("RevokeShare: 分享已撤销", zap.String("shareID", shareID), zap.Uint64("userID", userID))
	return nil
}

func (s *shareService) ListUserShares(ctx context.Context, userID uint64, page, pageSize int) ([]models.Share, int64, error) {
	shares, total, err := s.shareRepo.FindAllByOwner(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	// redis/badger 存储不预加载文件
	for i := range shares {
		if shares[i].File != nil {
			continue
		}
		if file, err := s.fileRepo.FindByID(ctx, shares[i].FileID); err == nil {
			shares[i].File = file
		}
	}
	return shares, total, nil
}

func (s *shareService) GetShare(ctx context.Context, userID uint64, shareID string) (*models.Share, error) {
	share, err := s.ownedShare(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	if share.File == nil {
		if file, err := s.fileRepo.FindByID(ctx, share.FileID); err == nil {
			share.File = file
		}
	}
	return share, nil
}

func (s *shareService) ListAccessLogs(ctx context.Context, userID uint64, shareID string, page, pageSize int) ([]models.ShareAccessLog, int64, error) {
	if _, err := s.ownedShare(ctx, userID, shareID); err != nil {
		return nil, 0, err
	}
	return s.accessLogRepo.FindByShareID(ctx, shareID, page, pageSize)
}

func (s *shareService) QRCode(ctx context.Context, userID uint64, shareID string) ([]byte, string, error) {
	if _, err := s.ownedShare(ctx, userID, shareID); err != nil {
		return nil, "", err
	}
	shareURL := s.policy.ShareURL(shareID)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("生成二维码失败: %w", err)
	}
	return png, shareURL, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// 回退到 rune 边界, 避免截断多字节字符
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
