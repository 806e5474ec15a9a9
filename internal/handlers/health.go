package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"go.uber.org/zap"
)

type HealthHandler struct {
	storage     storage.StorageService
	storageType string
}

func NewHealthHandler(storageService storage.StorageService, storageType string) *HealthHandler {
	return &HealthHandler{storage: storageService, storageType: storageType}
}

type HealthResponse struct {
	Status       string `json:"status"`
	StorageType  string `json:"storage_type"`
	Bucket       string `json:"bucket"`
	BucketStatus string `json:"bucket_status"`
}

// Health 检查对象存储连通性
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", StorageType: h.storageType, Bucket: h.storage.BucketName()}
	exists, err := h.storage.IsBucketExist(ctx, resp.Bucket)
	switch {
	case err != nil:
		logger.Warn("Health: 检查存储桶失败", zap.String("bucket", resp.Bucket), zap.Error(err))
		resp.Status, resp.BucketStatus = "degraded", "unreachable"
	case !exists:
		resp.Status, resp.BucketStatus = "degraded", "missing"
	default:
		resp.BucketStatus = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Ping
// @Summary Ping
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
