package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/mantadrive/mantadrive/docs"
	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/handlers"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers 路由需要的所有 Handler
type Handlers struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	File   *handlers.FileHandler
	Share  *handlers.ShareHandler
	Health *handlers.HealthHandler
}

// Middlewares Auth 为 JWT 校验, VerifyLimit 为分享校验限流, 为 nil 时不挂载
type Middlewares struct {
	Auth        gin.HandlerFunc
	VerifyLimit gin.HandlerFunc
}

func InitRouter(cfg *config.ServerConfig, h Handlers, mw Middlewares) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Health Check 路由
	router.GET("/ping", h.Health.Ping)
	router.GET("/health", h.Health.Health)

	if cfg.EnableSwagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}

		// 分享访问路由 (无需认证)
		publicShare := v1.Group("/s/:share_id")
		{
			publicShare.GET("", h.Share.InspectShare)

			verify := []gin.HandlerFunc{h.Share.VerifyShare}
			if mw.VerifyLimit != nil {
				verify = append([]gin.HandlerFunc{mw.VerifyLimit}, verify...)
			}
			publicShare.GET("/verify", verify...)
			publicShare.POST("/verify", verify...)
		}

		// 需要认证的路由组
		authenticated := v1.Group("")
		if mw.Auth != nil {
			authenticated.Use(mw.Auth)
		}

		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", h.User.GetMe)
		}

		fileGroup := authenticated.Group("/files")
		{
			fileGroup.GET("", h.File.ListFiles)
			fileGroup.POST("/upload", h.File.Upload)
			fileGroup.GET("/:file_id/download", h.File.Download)
			fileGroup.DELETE("/:file_id", h.File.Delete)
		}

		shareGroup := authenticated.Group("/shares")
		{
			shareGroup.POST("", h.Share.CreateShare)
			shareGroup.GET("/my", h.Share.ListMyShares)
			shareGroup.GET("/:share_id", h.Share.GetShare)
			shareGroup.DELETE("/:share_id", h.Share.RevokeShare)
			shareGroup.GET("/:share_id/access-logs", h.Share.ListAccessLogs)
			shareGroup.GET("/:share_id/qrcode", h.Share.QRCode)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, http.StatusNotFound, "Route not found")
	})

	return router
}
