package mapper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"gorm.io/gorm"
)

type fileHash struct {
	ID        uint64         `mapstructure:"id"`
	UUID      string         `mapstructure:"uuid"`
	UserID    uint64         `mapstructure:"user_id"`
	FileName  string         `mapstructure:"filename"`
	Category  string         `mapstructure:"category"`
	Size      uint64         `mapstructure:"size"`
	MimeType  *string        `mapstructure:"mime_type"`
	OssBucket *string        `mapstructure:"oss_bucket"`
	OssKey    *string        `mapstructure:"oss_key"`
	Status    uint8          `mapstructure:"status"`
	CreatedAt time.Time      `mapstructure:"created_at"`
	UpdatedAt time.Time      `mapstructure:"updated_at"`
	DeletedAt gorm.DeletedAt `mapstructure:"deleted_at"`
}

// FileToHash 将models.File转换成可直接写入 Redis Hash 的 map
// models.File 的 JSON 不含存储位置, 这里需要手动展开
func FileToHash(f *models.File) map[string]any {
	deletedAt := ""
	if f.DeletedAt.Valid {
		deletedAt = formatTime(f.DeletedAt.Time)
	}
	return map[string]any{
		"id":         strconv.FormatUint(f.ID, 10),
		"uuid":       f.UUID,
		"user_id":    strconv.FormatUint(f.UserID, 10),
		"filename":   f.FileName,
		"category":   f.Category,
		"size":       strconv.FormatUint(f.Size, 10),
		"mime_type":  derefString(f.MimeType),
		"oss_bucket": derefString(f.OssBucket),
		"oss_key":    derefString(f.OssKey),
		"status":     strconv.FormatUint(uint64(f.Status), 10),
		"created_at": formatTime(f.CreatedAt),
		"updated_at": formatTime(f.UpdatedAt),
		"deleted_at": deletedAt,
	}
}

// HashToFile 将 map[string]string 映射回 models.File
func HashToFile(dataMap map[string]string) (*models.File, error) {
	var h fileHash
	if err := decodeHash(dataMap, &h); err != nil {
		return nil, fmt.Errorf("failed to decode map to File struct: %w", err)
	}
	return &models.File{
		ID:        h.ID,
		UUID:      h.UUID,
		UserID:    h.UserID,
		FileName:  h.FileName,
		Category:  h.Category,
		Size:      h.Size,
		MimeType:  h.MimeType,
		OssBucket: h.OssBucket,
		OssKey:    h.OssKey,
		Status:    h.Status,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
		DeletedAt: h.DeletedAt,
	}, nil
}
