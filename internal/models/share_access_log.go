package models

import "time"

// 访问日志结果
const (
	AccessOutcomeGranted = "granted"
	AccessOutcomeDenied  = "denied"
)

// ShareAccessLog 对应 share_access_logs 表, 记录每一次校验的结果
type ShareAccessLog struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ShareID       string    `gorm:"type:varchar(36);not null;index" json:"share_id"`
	Outcome       string    `gorm:"type:varchar(16);not null" json:"outcome"`
	Reason        string    `gorm:"type:varchar(32);not null;default:''" json:"reason,omitempty"`
	ClientIP      string    `gorm:"type:varchar(64);not null;default:''" json:"client_ip"`
	UserAgent     string    `gorm:"type:varchar(255);not null;default:''" json:"user_agent"`
	DownloadCount uint32    `gorm:"type:int unsigned;not null;default:0" json:"download_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (ShareAccessLog) TableName() string {
	return "share_access_logs"
}
