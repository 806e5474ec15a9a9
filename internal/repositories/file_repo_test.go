package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/cache"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(userID uint64, name string) *models.File {
	key := models.UserFolderPrefix(userID) + models.CategoryDocuments + "/" + name
	return &models.File{
		UUID:     uuid.NewString(),
		UserID:   userID,
		FileName: name,
		Category: models.CategoryDocuments,
		Size:     12,
		MimeType: ptr("text/plain"),
		OssKey:   &key,
		Status:   models.StatusNormal,
	}
}

func TestDBFileRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewDBFileRepository(newTestDB(t))

	a := newTestFile(1, "a.txt")
	b := newTestFile(1, "b.txt")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, newTestFile(2, "other.txt")))

	files, total, err := repo.FindByUserID(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, files, 2)

	require.NoError(t, repo.SoftDelete(ctx, a.ID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, a.ID), xerr.ErrFileNotFound)

	// 已删除文件仍可按 ID 读到, 但不可用
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable())

	files, total, err = repo.FindByUserID(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b.ID, files[0].ID)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)
}

func TestCachedFileRepository_InvalidatesOnDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewRedisCache(newTestRedis(t))
	repo := NewCachedFileRepository(NewDBFileRepository(newTestDB(t)), c)

	f := newTestFile(1, "cached.txt")
	require.NoError(t, repo.Create(ctx, f))

	got, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable())

	cached, err := c.HGetAll(ctx, cache.GenerateFileMetadataKey(f.ID))
	require.NoError(t, err)
	assert.Equal(t, *f.OssKey, cached["oss_key"])

	require.NoError(t, repo.SoftDelete(ctx, f.ID))
	got, err = repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable())

	_, err = repo.FindByID(ctx, 424242)
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)
	// 第二次命中空值缓存
	_, err = repo.FindByID(ctx, 424242)
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)
}

func TestAccessLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccessLogRepository(newTestDB(t))

	for _, outcome := range []string{models.AccessOutcomeDenied, models.AccessOutcomeGranted, models.AccessOutcomeGranted} {
		require.NoError(t, repo.Create(ctx, &models.ShareAccessLog{ShareID: "s1", Outcome: outcome, ClientIP: "10.0.0.1"}))
	}
	require.NoError(t, repo.Create(ctx, &models.ShareAccessLog{ShareID: "s2", Outcome: models.AccessOutcomeDenied}))

	logs, total, err := repo.FindByShareID(ctx, "s1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 2)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	u := &models.User{Username: "manta", Email: "manta@example.com", PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(u))

	got, err := repo.GetUserByEmail("manta@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)

	assert.Error(t, repo.CreateUser(&models.User{Username: "manta", Email: "dup@example.com", PasswordHash: "x"}))
}
