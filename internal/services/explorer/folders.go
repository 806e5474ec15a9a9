package explorer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
)

// UserFolderKeys 新用户需要的目录占位对象, 例如 user-42/documents/
func UserFolderKeys(userID uint64) []string {
	prefix := models.UserFolderPrefix(userID)
	keys := make([]string, 0, len(models.UserCategories))
	for _, category := range models.UserCategories {
		keys = append(keys, prefix+category+"/")
	}
	return keys
}

// ProvisionUserFolders 在对象存储中写入零字节的目录占位对象
func ProvisionUserFolders(ctx context.Context, svc storage.StorageService, userID uint64) error {
	for _, key := range UserFolderKeys(userID) {
		if _, err := svc.PutObject(ctx, svc.BucketName(), key, bytes.NewReader(nil), 0, storage.DirectoryContentType); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", key, err)
		}
	}
	return nil
}
