package mapper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
)

// shareHash 是分享记录在 Redis Hash / Badger 中的扁平表示
// 与 models.Share 不同, 凭证字段需要原样保存
type shareHash struct {
	ID            uint64    `mapstructure:"id"`
	ShareID       string    `mapstructure:"share_id"`
	OwnerID       uint64    `mapstructure:"owner_id"`
	FileID        uint64    `mapstructure:"file_id"`
	AccessKey     *string   `mapstructure:"access_key"`
	PasswordHash  *string   `mapstructure:"password_hash"`
	ExpiresAt     time.Time `mapstructure:"expires_at"`
	ExpiresAtUnix int64     `mapstructure:"expires_at_ms"`
	MaxDownloads  *uint32   `mapstructure:"max_downloads"`
	DownloadCount uint32    `mapstructure:"download_count"`
	Status        uint8     `mapstructure:"status"`
	CreatedAt     time.Time `mapstructure:"created_at"`
	UpdatedAt     time.Time `mapstructure:"updated_at"`
}

// ShareToHash 将 models.Share 转换成字段全为字符串的 map
// 空指针写成空字符串, expires_at_ms 供 Lua 脚本直接比较
func ShareToHash(s *models.Share) map[string]string {
	return map[string]string{
		"id":             strconv.FormatUint(s.ID, 10),
		"share_id":       s.ShareID,
		"owner_id":       strconv.FormatUint(s.OwnerID, 10),
		"file_id":        strconv.FormatUint(s.FileID, 10),
		"access_key":     derefString(s.AccessKey),
		"password_hash":  derefString(s.PasswordHash),
		"expires_at":     formatTime(s.ExpiresAt),
		"expires_at_ms":  strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10),
		"max_downloads":  formatUint32Ptr(s.MaxDownloads),
		"download_count": strconv.FormatUint(uint64(s.DownloadCount), 10),
		"status":         strconv.FormatUint(uint64(s.Status), 10),
		"created_at":     formatTime(s.CreatedAt),
		"updated_at":     formatTime(s.UpdatedAt),
	}
}

// HashToShare 将 map[string]string 映射回 models.Share
func HashToShare(dataMap map[string]string) (*models.Share, error) {
	var h shareHash

	if err := decodeHash(dataMap, &h); err != nil {
		return nil, fmt.Errorf("failed to decode map to Share struct: %w", err)
	}

	return &models.Share{
		ID:            h.ID,
		ShareID:       h.ShareID,
		OwnerID:       h.OwnerID,
		FileID:        h.FileID,
		AccessKey:     h.AccessKey,
		PasswordHash:  h.PasswordHash,
		ExpiresAt:     h.ExpiresAt,
		MaxDownloads:  h.MaxDownloads,
		DownloadCount: h.DownloadCount,
		Status:        h.Status,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatUint32Ptr(p *uint32) string {
	if p == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*p), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
