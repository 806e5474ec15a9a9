package models

import (
	"time"
)

// 分享记录状态
const (
	ShareStatusRevoked = 0 // 所有者已撤销
	ShareStatusActive  = 1 // 可用
	ShareStatusExpired = 2 // 已被清理任务标记为过期 (过期判断始终以 ExpiresAt 为准)
)

// 对外展示的分享状态
const (
	ShareStateActive         = "active"
	ShareStateExpired        = "expired"
	ShareStateLimitExhausted = "limit_exhausted"
	ShareStateDeleted        = "deleted"
)

// Share 对应 shares 表
// 一条记录在整个生命周期内由 ShareID 唯一标识, 撤销和过期都只是逻辑状态
type Share struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareID       string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"share_id"`
	OwnerID       uint64    `gorm:"not null;index" json:"owner_id"`
	FileID        uint64    `gorm:"not null;index" json:"file_id"`
	AccessKey     *string   `gorm:"type:varchar(255);default:null" json:"-"`
	PasswordHash  *string   `gorm:"type:varchar(255);default:null" json:"-"` // bcrypt 哈希
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	MaxDownloads  *uint32   `gorm:"type:int unsigned;default:null" json:"max_downloads,omitempty"`
	DownloadCount uint32    `gorm:"type:int unsigned;not null;default:0" json:"download_count"`
	Status        uint8     `gorm:"type:tinyint unsigned;not null;default:1;index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关系File模型预加载
	File *File `gorm:"foreignKey:FileID" json:"-"`
}

// 指定gorm的表名
func (Share) TableName() string {
	return "shares"
}

func (s *Share) HasAccessKey() bool {
	return s.AccessKey != nil && *s.AccessKey != ""
}

func (s *Share) HasPassword() bool {
	return s.PasswordHash != nil && *s.PasswordHash != ""
}

// IsExpired now 不早于 ExpiresAt 即视为过期
func (s *Share) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LimitReached 设置了下载上限且已用完
func (s *Share) LimitReached() bool {
	return s.MaxDownloads != nil && s.DownloadCount >= *s.MaxDownloads
}

// DownloadsRemaining 剩余下载次数, 无上限时返回 nil
func (s *Share) DownloadsRemaining() *uint32 {
	if s.MaxDownloads == nil {
		return nil
	}
	var left uint32
	if s.DownloadCount < *s.MaxDownloads {
		left = *s.MaxDownloads - s.DownloadCount
	}
	return &left
}

// State 按 Active -> {expired, limit_exhausted, deleted} 计算当前状态, 终态不可逆
func (s *Share) State(now time.Time) string {
	switch {
	case s.Status == ShareStatusRevoked:
		return ShareStateDeleted
	case s.Status == ShareStatusExpired || s.IsExpired(now):
		return ShareStateExpired
	case s.LimitReached():
		return ShareStateLimitExhausted
	default:
		return ShareStateActive
	}
}
