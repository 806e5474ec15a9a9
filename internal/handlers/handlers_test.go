package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/audit"
	"github.com/mantadrive/mantadrive/internal/pkg/storage/storagetest"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/mantadrive/mantadrive/internal/services/admin"
	"github.com/mantadrive/mantadrive/internal/services/explorer"
	"github.com/mantadrive/mantadrive/internal/services/share"
	"github.com/mantadrive/mantadrive/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	engine *gin.Engine
	store  *storagetest.MemoryStorage
	repo   *failingShareRepo
}

// failingShareRepo 可以让查询返回存储不可用
type failingShareRepo struct {
	repositories.ShareRepository
	down bool
}

func (r *failingShareRepo) FindByShareID(ctx context.Context, shareID string) (*models.Share, error) {
	if r.down {
		return nil, xerr.ErrStoreUnavailable
	}
	return r.ShareRepository.FindByShareID(ctx, shareID)
}

// asUser 测试中代替 JWT 中间件, 通过 X-User 头指定用户
func asUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.GetHeader("X-User"), 10, 64)
	if err == nil {
		c.Set(utils.ContextUserIDKey, id)
	}
	c.Next()
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := setup.InitDB(&config.MySQLConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000",
	})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })

	bdb, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })
	badgerRepo, err := repositories.NewBadgerShareRepository(bdb, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerRepo.Close() })

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "0123456789abcdef0123", ExpiresIn: time.Hour, Issuer: "mantadrive"},
		Storage: config.StorageConfig{Type: "s3", PresignedURLExpiry: 15},
	}
	store := storagetest.NewMemoryStorage("mantadrive-users")
	userRepo := repositories.NewUserRepository(db)
	fileRepo := repositories.NewDBFileRepository(db)
	logRepo := repositories.NewAccessLogRepository(db)
	shareRepo := &failingShareRepo{ShareRepository: badgerRepo}

	policy := share.DefaultPolicy()
	policy.BaseURL = "https://drive.example.com"

	authH := NewAuthHandler(admin.NewAuthService(userRepo, store, cfg))
	userH := NewUserHandler(admin.NewUserService(userRepo))
	fileH := NewFileHandler(explorer.NewFileService(fileRepo, explorer.NewFileDomainService(fileRepo), store, cfg))
	shareH := NewShareHandler(share.NewShareService(shareRepo, fileRepo, logRepo, store, audit.NewDBRecorder(logRepo), policy))
	healthH := NewHealthHandler(store, "s3")

	r := gin.New()
	r.GET("/health", healthH.Health)
	r.GET("/ping", healthH.Ping)
	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)
	v1.GET("/s/:share_id", shareH.InspectShare)
	v1.GET("/s/:share_id/verify", shareH.VerifyShare)
	v1.POST("/s/:share_id/verify", shareH.VerifyShare)
	authed := v1.Group("", asUser)
	authed.GET("/users/me", userH.GetMe)
	authed.POST("/files/upload", fileH.Upload)
	authed.GET("/files", fileH.ListFiles)
	authed.GET("/files/:file_id/download", fileH.Download)
	authed.DELETE("/files/:file_id", fileH.Delete)
	authed.POST("/shares", shareH.CreateShare)
	authed.GET("/shares/my", shareH.ListMyShares)
	authed.GET("/shares/:share_id", shareH.GetShare)
	authed.DELETE("/shares/:share_id", shareH.RevokeShare)
	authed.GET("/shares/:share_id/access-logs", shareH.ListAccessLogs)
	authed.GET("/shares/:share_id/qrcode", shareH.QRCode)

	return &testApp{engine: r, store: store, repo: shareRepo}
}

func (a *testApp) do(t *testing.T, method, path string, user uint64, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != 0 {
		req.Header.Set("X-User", strconv.FormatUint(user, 10))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (a *testApp) upload(t *testing.T, user uint64, name, contentType, content string) models.File {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User", strconv.FormatUint(user, 10))
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var file models.File
	require.NoError(t, json.Unmarshal(env.Data, &file))
	return file
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/auth/register", 0, RegisterRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reg := decode[RegisterResponse](t, env.Data)
	assert.Equal(t, "alice", reg.Username)
	assert.Len(t, app.store.Keys("mantadrive-users"), 4)

	w, _ = app.do(t, http.MethodPost, "/api/v1/auth/register", 0, RegisterRequest{
		Username: "alice", Password: "secret123", Email: "other@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = app.do(t, http.MethodPost, "/api/v1/auth/login", 0, LoginRequest{Identifier: "alice@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[LoginResponse](t, env.Data).Token)

	w, env = app.do(t, http.MethodPost, "/api/v1/auth/login", 0, LoginRequest{Identifier: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.InvalidCredentialsCode, env.Code)

	w, env = app.do(t, http.MethodGet, "/api/v1/users/me", reg.UserID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode[models.User](t, env.Data).Email)

	w, _ = app.do(t, http.MethodPost, "/api/v1/auth/register", 0, map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileEndpoints(t *testing.T) {
	app := newTestApp(t)
	file := app.upload(t, 5, "photo.jpg", "image/jpeg", "jpegdata")
	assert.Equal(t, models.CategoryImages, file.Category)

	w, env := app.do(t, http.MethodGet, "/api/v1/files", 5, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[PageResponse[models.File]](t, env.Data)
	assert.Equal(t, int64(1), page.Total)

	path := "/api/v1/files/" + strconv.FormatUint(file.ID, 10)
	w, env = app.do(t, http.MethodGet, path+"/download", 5, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[DownloadURLResponse](t, env.Data).URL, "user-5/images/")

	w, _ = app.do(t, http.MethodGet, path+"/download", 6, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = app.do(t, http.MethodGet, "/api/v1/files/abc/download", 5, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = app.do(t, http.MethodGet, "/api/v1/files", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodDelete, path, 5, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodGet, path+"/download", 5, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareLifecycle(t *testing.T) {
	app := newTestApp(t)
	file := app.upload(t, 1, "report.pdf", "application/pdf", "%PDF")

	w, env := app.do(t, http.MethodPost, "/api/v1/shares", 1, CreateShareRequest{
		FileID: file.ID, AccessKey: ptr("AB12CD"), ExpiresInMinutes: ptr(24 * 60), MaxDownloads: ptr[uint32](3),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[CreateShareResponse](t, env.Data)
	assert.Equal(t, "https://drive.example.com/s/"+created.ShareID, created.ShareURL)
	assert.Equal(t, "AB12CD", *created.AccessKey)
	assert.Equal(t, uint32(3), *created.MaxDownloads)
	verifyPath := "/api/v1/s/" + created.ShareID + "/verify"

	// 访问码错误
	w, env = app.do(t, http.MethodPost, verifyPath, 0, VerifyShareRequest{AccessKey: ptr("WRONG1")})
	assert.Equal(t, http.StatusForbidden, w.Code)
	denied := decode[VerifyDenied](t, env.Data)
	assert.Equal(t, VerifyDenied{Granted: false, Reason: xerr.ReasonAccessDenied, Retryable: false}, denied)

	for i := uint32(1); i <= 3; i++ {
		w, env = app.do(t, http.MethodPost, verifyPath, 0, VerifyShareRequest{AccessKey: ptr("AB12CD")})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		granted := decode[VerifyGranted](t, env.Data)
		assert.True(t, granted.Granted)
		assert.Equal(t, i, granted.DownloadCount)
		assert.NotEmpty(t, granted.DownloadRef)
	}

	// GET 查询参数等价
	w, env = app.do(t, http.MethodGet, verifyPath+"?access_key=AB12CD", 0, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, xerr.ReasonLimitExceeded, decode[VerifyDenied](t, env.Data).Reason)

	w, env = app.do(t, http.MethodGet, "/api/v1/s/"+created.ShareID, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[ShareInfoResponse](t, env.Data)
	assert.Equal(t, models.ShareStateLimitExhausted, info.State)
	assert.True(t, info.RequiresAccessKey)
	assert.Equal(t, "report.pdf", info.FileName)

	w, env = app.do(t, http.MethodGet, "/api/v1/shares/"+created.ShareID+"/access-logs", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), decode[PageResponse[models.ShareAccessLog]](t, env.Data).Total)

	w, env = app.do(t, http.MethodGet, "/api/v1/shares/"+created.ShareID+"/qrcode", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[QRCodeResponse](t, env.Data).QRCode)

	w, _ = app.do(t, http.MethodDelete, "/api/v1/shares/"+created.ShareID, 2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = app.do(t, http.MethodDelete, "/api/v1/shares/"+created.ShareID, 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[OKResponse](t, env.Data).OK)

	// 撤销后统一返回 unavailable
	w, env = app.do(t, http.MethodPost, verifyPath, 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.ReasonUnavailable, decode[VerifyDenied](t, env.Data).Reason)

	w, env = app.do(t, http.MethodGet, "/api/v1/shares/my", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[PageResponse[ShareDetailResponse]](t, env.Data)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, models.ShareStateDeleted, mine.Items[0].State)
	assert.Equal(t, "report.pdf", mine.Items[0].FileName)
}

func TestCreateShare_BadRequests(t *testing.T) {
	app := newTestApp(t)
	file := app.upload(t, 1, "a.txt", "text/plain", "a")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing file", map[string]any{}, http.StatusBadRequest},
		{"bad key", CreateShareRequest{FileID: file.ID, AccessKey: ptr("no spaces")}, http.StatusBadRequest},
		{"ttl too long", CreateShareRequest{FileID: file.ID, ExpiresInMinutes: ptr(60 * 24 * 365)}, http.StatusBadRequest},
		{"zero downloads", map[string]any{"file_id": file.ID, "max_downloads": 0}, http.StatusBadRequest},
		{"unknown file", CreateShareRequest{FileID: 999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := app.do(t, http.MethodPost, "/api/v1/shares", 1, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestVerify_StoreUnavailableIsRetryable(t *testing.T) {
	app := newTestApp(t)
	app.repo.down = true

	w, env := app.do(t, http.MethodPost, "/api/v1/s/anything/verify", 0, VerifyShareRequest{})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))
	assert.Equal(t, VerifyDenied{Granted: false, Reason: xerr.ReasonStoreUnavailable, Retryable: true}, decode[VerifyDenied](t, env.Data))
}

func TestVerify_UnknownShareIsUniform(t *testing.T) {
	app := newTestApp(t)
	w, env := app.do(t, http.MethodPost, "/api/v1/s/"+uuid.NewString()+"/verify", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.ReasonUnavailable, decode[VerifyDenied](t, env.Data).Reason)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w, _ := app.do(t, http.MethodGet, "/health", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{Status: "ok", StorageType: "s3", Bucket: "mantadrive-users", BucketStatus: "ok"}, resp)

	w, _ = app.do(t, http.MethodGet, "/ping", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func ptr[T any](v T) *T { return &v }
