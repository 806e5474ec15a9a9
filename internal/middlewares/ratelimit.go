package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/pkg/cache"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
)

const verifyWindow = time.Minute

// VerifyRateLimit 按 (share_id, 客户端 IP) 统计每分钟的校验次数, 超出后直接返回 429.
// limit 为 0 或 cache 为空时不启用. 计数器故障时放行, 由分享存储自身给出结果
func VerifyRateLimit(c cache.Cache, limit int, now func() time.Time) gin.HandlerFunc {
	if c == nil || limit <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	if now == nil {
		now = time.Now
	}
	return func(ctx *gin.Context) {
		shareID := ctx.Param("share_id")
		t := now()
		window := t.Unix() / int64(verifyWindow/time.Second)
		key := cache.GenerateVerifyAttemptKey(shareID, ctx.ClientIP(), window)

		count, err := c.Incr(ctx.Request.Context(), key, 2*verifyWindow)
		if err != nil {
			logger.Warn("VerifyRateLimit: 计数失败, 放行请求", zap.String("shareID", shareID), zap.Error(err))
			ctx.Next()
			return
		}
		if count > int64(limit) {
			retryAfter := verifyWindow - time.Duration(t.Unix()%int64(verifyWindow/time.Second))*time.Second
			ctx.Header("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
			logger.Warn("VerifyRateLimit: 校验请求过于频繁", zap.String("shareID", shareID), zap.String("clientIP", ctx.ClientIP()))
			xerr.AbortWithError(ctx, http.StatusTooManyRequests, xerr.TooManyRequestsCode, xerr.ErrTooManyRequests.Error())
			return
		}
		ctx.Next()
	}
}
