package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
)

// 认证中间件写入 gin.Context 的键
const (
	ContextUserIDKey   = "userID"
	ContextUsernameKey = "username"
	ContextEmailKey    = "email"
)

// GetUserIDFromContext 从 Gin 上下文中获取并验证用户ID
// 如果获取失败或类型不正确，会中止请求并返回错误
func GetUserIDFromContext(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(ContextUserIDKey)
	if !exists {
		xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "User ID not found in context")
		return 0, false
	}
	currentUserID, ok := userID.(uint64)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid user ID type in context")
		return 0, false
	}
	return currentUserID, true
}
