package mapper

import (
	"testing"
	"time"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareHash_CredentialsAndLimits(t *testing.T) {
	key := "AB12CD"
	hash := "$2a$10$abcdefghijklmnopqrstuv"
	three := uint32(3)
	expires := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

	in := &models.Share{
		ID: 7, ShareID: "s-1", OwnerID: 2, FileID: 9,
		AccessKey: &key, PasswordHash: &hash,
		ExpiresAt: expires, MaxDownloads: &three, DownloadCount: 1,
		Status: models.ShareStatusActive,
	}
	m := ShareToHash(in)
	assert.Equal(t, "1772353800000", m["expires_at_ms"])

	out, err := HashToShare(m)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", *out.AccessKey)
	assert.Equal(t, hash, *out.PasswordHash)
	assert.Equal(t, uint32(3), *out.MaxDownloads)
	assert.Equal(t, uint32(1), out.DownloadCount)
	assert.True(t, expires.Equal(out.ExpiresAt))
	assert.True(t, out.CreatedAt.IsZero())
}

func TestShareHash_OptionalFieldsStayNil(t *testing.T) {
	in := &models.Share{ShareID: "open", ExpiresAt: time.Now().UTC(), Status: models.ShareStatusActive}
	out, err := HashToShare(ShareToHash(in))
	require.NoError(t, err)
	assert.Nil(t, out.AccessKey)
	assert.Nil(t, out.PasswordHash)
	assert.Nil(t, out.MaxDownloads)
	assert.Equal(t, uint8(models.ShareStatusActive), out.Status)
}

func TestFileHash_KeepsStorageLocation(t *testing.T) {
	key := "user-1/images/abc-cat.png"
	bucket := "mantadrive-users"
	mime := "image/png"
	in := &models.File{ID: 3, UUID: "abc", UserID: 1, FileName: "cat.png", Category: models.CategoryImages,
		Size: 42, MimeType: &mime, OssBucket: &bucket, OssKey: &key, Status: models.StatusNormal}

	raw := FileToHash(in)
	flat := make(map[string]string, len(raw))
	for k, v := range raw {
		flat[k] = v.(string)
	}

	out, err := HashToFile(flat)
	require.NoError(t, err)
	assert.Equal(t, key, *out.OssKey)
	assert.Equal(t, bucket, *out.OssBucket)
	assert.Equal(t, uint64(42), out.Size)
	assert.False(t, out.DeletedAt.Valid)
	assert.True(t, out.IsAvailable())
}
