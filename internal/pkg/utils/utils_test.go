package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "alice", "alice@example.com", testSecret, "mantadrive", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret, "mantadrive")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(1, "a", "a@x.io", testSecret, "mantadrive", -time.Minute)
	require.NoError(t, err)
	good, err := GenerateToken(1, "a", "a@x.io", testSecret, "mantadrive", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
		issuer string
	}{
		{"expired", expired, testSecret, "mantadrive"},
		{"wrong secret", good, "another-secret-value-123", "mantadrive"},
		{"wrong issuer", good, testSecret, "someone-else"},
		{"garbage", "not-a-token", testSecret, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret, tt.issuer)
			assert.Error(t, err)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("S3cret", hash))
}

func TestGetUserIDFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextUserIDKey, uint64(7))
	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	_, ok = GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}
