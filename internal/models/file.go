package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	StatusDeleted = 0 // 已删除 (软删除)
	StatusNormal  = 1 // 正常
)

// 用户目录下的文件分类, 注册时会预先创建这些目录
const (
	CategoryDocuments = "documents"
	CategoryImages    = "images"
	CategoryVideos    = "videos"
	CategoryOthers    = "others"
)

// UserCategories 注册时预建的目录顺序
var UserCategories = []string{CategoryDocuments, CategoryImages, CategoryVideos, CategoryOthers}

// File 对应 files 表
type File struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      string         `gorm:"type:varchar(36);unique;not null" json:"uuid"` // 文件在对象存储中的唯一标识
	UserID    uint64         `gorm:"not null;index" json:"user_id"`
	FileName  string         `gorm:"type:varchar(255);not null" json:"filename"`
	Category  string         `gorm:"type:varchar(16);not null;default:'others'" json:"category"`
	Size      uint64         `gorm:"type:bigint unsigned;not null;default:0" json:"size"`
	MimeType  *string        `gorm:"type:varchar(128);default:null" json:"mime_type"`
	OssBucket *string        `gorm:"type:varchar(64);default:null" json:"-"`
	OssKey    *string        `gorm:"type:varchar(512);default:null" json:"-"` // 不向匿名访问者暴露
	Status    uint8          `gorm:"type:tinyint unsigned;not null;default:1" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (File) TableName() string {
	return "files"
}

// IsAvailable 文件存在且未被删除
func (f *File) IsAvailable() bool {
	return f != nil && f.Status == StatusNormal && !f.DeletedAt.Valid && f.OssKey != nil
}

// ContentType 返回 MIME 类型, 未知时为 application/octet-stream
func (f *File) ContentType() string {
	if f.MimeType == nil || *f.MimeType == "" {
		return "application/octet-stream"
	}
	return *f.MimeType
}

// CategoryForMime 按 MIME 类型决定文件所在目录
func CategoryForMime(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImages
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideos
	case strings.HasPrefix(mime, "text/"),
		mime == "application/pdf",
		strings.Contains(mime, "document"),
		strings.Contains(mime, "msword"),
		strings.Contains(mime, "spreadsheet"),
		strings.Contains(mime, "presentation"):
		return CategoryDocuments
	default:
		return CategoryOthers
	}
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
