package explorer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/storage/storagetest"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/mantadrive/mantadrive/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   FileService
	store *storagetest.MemoryStorage
	repo  repositories.FileRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := setup.InitDB(&config.MySQLConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000",
	})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })

	store := storagetest.NewMemoryStorage("mantadrive-users")
	repo := repositories.NewDBFileRepository(db)
	cfg := &config.Config{Storage: config.StorageConfig{Type: "s3", PresignedURLExpiry: 15}}
	return &fixture{
		svc:   NewFileService(repo, NewFileDomainService(repo), store, cfg),
		store: store,
		repo:  repo,
	}
}

func (f *fixture) upload(t *testing.T, userID uint64, name, contentType, body string) *models.File {
	t.Helper()
	file, err := f.svc.Upload(context.Background(), userID, UploadInput{
		FileName:    name,
		Size:        int64(len(body)),
		ContentType: contentType,
		Reader:      strings.NewReader(body),
	})
	require.NoError(t, err)
	return file
}

func TestUpload_StoresUnderCategoryFolder(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, 42, "../../report.pdf", "application/pdf", "%PDF-1.7")

	assert.Equal(t, "report.pdf", file.FileName)
	assert.Equal(t, models.CategoryDocuments, file.Category)
	assert.Equal(t, "user-42/documents/"+file.UUID+"-report.pdf", *file.OssKey)

	obj, ok := f.store.Object("mantadrive-users", *file.OssKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.7", string(obj.Data))

	img := f.upload(t, 42, "cat.png", "image/png", "png")
	assert.True(t, strings.HasPrefix(*img.OssKey, "user-42/images/"))
}

func TestUpload_Failures(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), 1, UploadInput{FileName: "..", Reader: strings.NewReader("")})
	assert.ErrorIs(t, err, xerr.ErrFileNameInvalid)

	f.store.PutErr = errors.New("bucket gone")
	_, err = f.svc.Upload(context.Background(), 1, UploadInput{FileName: "a.txt", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, xerr.ErrStorageError)
}

func TestPresignedDownload_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, 7, "notes.txt", "text/plain", "hello")

	url, err := f.svc.GetPresignedURLForDownload(context.Background(), 7, file.ID)
	require.NoError(t, err)
	assert.Contains(t, url, *file.OssKey)

	presigns := f.store.Presigns()
	require.Len(t, presigns, 1)
	assert.Equal(t, "notes.txt", presigns[0].DownloadName)
	assert.Equal(t, int64(15*60), int64(presigns[0].Expiry.Seconds()))

	_, err = f.svc.GetPresignedURLForDownload(context.Background(), 8, file.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
}

func TestSoftDelete_HidesFile(t *testing.T) {
	f := newFixture(t)
	file := f.upload(t, 7, "notes.txt", "text/plain", "hello")

	require.NoError(t, f.svc.SoftDelete(context.Background(), 7, file.ID))

	files, total, err := f.svc.ListFiles(context.Background(), 7, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, files)

	_, err = f.svc.GetPresignedURLForDownload(context.Background(), 7, file.ID)
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)
}

func TestProvisionUserFolders(t *testing.T) {
	store := storagetest.NewMemoryStorage("mantadrive-users")
	require.NoError(t, ProvisionUserFolders(context.Background(), store, 3))

	assert.ElementsMatch(t, []string{
		"user-3/documents/", "user-3/images/", "user-3/videos/", "user-3/others/",
	}, store.Keys("mantadrive-users"))
	obj, _ := store.Object("mantadrive-users", "user-3/images/")
	assert.Equal(t, storage.DirectoryContentType, obj.ContentType)
	assert.Empty(t, obj.Data)
}
