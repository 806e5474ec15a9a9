package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "attachment", ContentDisposition(""))
	assert.Equal(t, `attachment; filename=report.pdf`, ContentDisposition("report.pdf"))
	// 非 ASCII 文件名按 RFC 2231 编码
	assert.True(t, strings.HasPrefix(ContentDisposition("报告.pdf"), "attachment; filename*=utf-8''"))
}

func TestNewStorageService_InvalidType(t *testing.T) {
	_, err := NewStorageService(context.Background(), &config.Config{Storage: config.StorageConfig{Type: "ftp"}})
	assert.ErrorIs(t, err, ErrInvalidStorageType)
}

// 预签名只做本地签名计算, 不需要真实的 S3 服务
func TestS3PresignGetObject_ScopedToObject(t *testing.T) {
	svc, err := NewS3StorageService(context.Background(), &config.S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		BucketName:      "mantadrive-users",
	})
	require.NoError(t, err)

	raw, err := svc.PresignGetObject(context.Background(), "mantadrive-users", "user-1/documents/a.txt", 5*time.Minute, "a.txt")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/mantadrive-users/user-1/documents/a.txt", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("response-content-disposition"), "a.txt")
}

func TestNewMinIOStorageService(t *testing.T) {
	svc, err := NewMinIOStorageService(&config.MinIOConfig{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "mantadrive-users",
	})
	require.NoError(t, err)
	assert.Equal(t, "mantadrive-users", svc.BucketName())
}
