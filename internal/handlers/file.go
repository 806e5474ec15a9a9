package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/services/explorer"
	"go.uber.org/zap"
)

// MaxUploadSize 单文件上传大小上限
const MaxUploadSize = 512 << 20

type FileHandler struct {
	fileService explorer.FileService
}

func NewFileHandler(fileService explorer.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}

func parseFileID(c *gin.Context) (uint64, bool) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的文件ID")
		return 0, false
	}
	return fileID, true
}

// Upload 上传单个文件
// @Summary 上传文件
// @Description 文件按 MIME 类型存放到 user-<id>/<category>/ 目录
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "文件"
// @Success 200 {object} xerr.Response{data=models.File} "上传成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 413 {object} xerr.Response "文件过大"
// @Router /api/v1/files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少上传文件: "+err.Error())
		return
	}
	if header.Size > MaxUploadSize {
		xerr.AbortWithErr(c, xerr.ErrFileTooLarge)
		return
	}

	src, err := header.Open()
	if err != nil {
		logger.Error("Upload: 打开上传文件失败", zap.Error(err))
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无法读取上传文件")
		return
	}
	defer src.Close()

	file, err := h.fileService.Upload(c.Request.Context(), userID, explorer.UploadInput{
		FileName:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      src,
	})
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "文件上传成功", file)
}

// ListFiles 列出当前用户的文件
// @Summary 文件列表
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response{data=PageResponse[models.File]} "文件列表"
// @Router /api/v1/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	files, total, err := h.fileService.ListFiles(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	if files == nil {
		files = []models.File{}
	}
	xerr.Success(c, http.StatusOK, "获取文件列表成功", PageResponse[models.File]{Items: files, Total: total, Page: page, PageSize: pageSize})
}

// Download 获取文件的预签名下载链接
// @Summary 文件下载链接
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件ID"
// @Success 200 {object} xerr.Response{data=DownloadURLResponse} "预签名链接"
// @Failure 403 {object} xerr.Response "无权访问"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/files/{file_id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}
	url, err := h.fileService.GetPresignedURLForDownload(c.Request.Context(), userID, fileID)
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取下载链接成功", DownloadURLResponse{URL: url})
}

// Delete 软删除文件
// @Summary 删除文件
// @Description 删除后指向该文件的分享不再签发下载
// @Tags 文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/files/{file_id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}
	if err := h.fileService.SoftDelete(c.Request.Context(), userID, fileID); err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "文件删除成功", nil)
}
