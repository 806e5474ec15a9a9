package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/services/share"
)

// RetryAfterSeconds 存储暂不可用时建议的重试间隔
const RetryAfterSeconds = "5"

type ShareHandler struct {
	shareService share.ShareService
}

func NewShareHandler(shareService share.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

type CreateShareRequest struct {
	FileID            uint64  `json:"file_id" binding:"required"`
	AccessKey         *string `json:"access_key" binding:"omitempty,alphanum,min=1,max=64"`
	GenerateAccessKey bool    `json:"generate_access_key"`
	Password          *string `json:"password" binding:"omitempty,max=255"`
	ExpiresInMinutes  *int    `json:"expires_in_minutes"` // 以分钟为单位
	MaxDownloads      *uint32 `json:"max_downloads" binding:"omitempty,min=1"`
}

type CreateShareResponse struct {
	ShareID      string    `json:"share_id"`
	ShareURL     string    `json:"share_url"`
	AccessKey    *string   `json:"access_key,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	MaxDownloads *uint32   `json:"max_downloads,omitempty"`
}

// VerifyShareRequest GET 时从查询参数读取, POST 时从 JSON 读取
type VerifyShareRequest struct {
	AccessKey *string `json:"access_key" form:"access_key"`
	Password  *string `json:"password" form:"password"`
}

// VerifyGranted 校验通过
type VerifyGranted struct {
	Granted            bool      `json:"granted"`
	DownloadRef        string    `json:"download_ref"`
	DownloadCount      uint32    `json:"download_count"`
	DownloadsRemaining *uint32   `json:"downloads_remaining,omitempty"`
	ExpiresAt          time.Time `json:"expires_at"`
	DownloadExpiresAt  time.Time `json:"download_expires_at"`
}

// VerifyDenied 校验未通过
type VerifyDenied struct {
	Granted   bool   `json:"granted"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// ShareInfoResponse 匿名访问者看到的分享概要
type ShareInfoResponse struct {
	ShareID            string    `json:"share_id"`
	State              string    `json:"state"`
	RequiresAccessKey  bool      `json:"requires_access_key"`
	RequiresPassword   bool      `json:"requires_password"`
	ExpiresAt          time.Time `json:"expires_at"`
	DownloadsRemaining *uint32   `json:"downloads_remaining,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           uint64    `json:"file_size"`
	ContentType        string    `json:"content_type"`
}

// ShareDetailResponse 所有者看到的分享详情
type ShareDetailResponse struct {
	ShareID            string    `json:"share_id"`
	ShareURL           string    `json:"share_url"`
	FileID             uint64    `json:"file_id"`
	FileName           string    `json:"file_name,omitempty"`
	State              string    `json:"state"`
	HasAccessKey       bool      `json:"has_access_key"`
	HasPassword        bool      `json:"has_password"`
	ExpiresAt          time.Time `json:"expires_at"`
	MaxDownloads       *uint32   `json:"max_downloads,omitempty"`
	DownloadCount      uint32    `json:"download_count"`
	DownloadsRemaining *uint32   `json:"downloads_remaining,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type QRCodeResponse struct {
	QRCode   string `json:"qr_code"`
	ShareURL string `json:"share_url"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

func (h *ShareHandler) detail(s *models.Share) ShareDetailResponse {
	policy := h.shareService.Policy()
	out := ShareDetailResponse{
		ShareID:            s.ShareID,
		ShareURL:           policy.ShareURL(s.ShareID),
		FileID:             s.FileID,
		State:              s.State(time.Now().UTC()),
		HasAccessKey:       s.HasAccessKey(),
		HasPassword:        s.HasPassword(),
		ExpiresAt:          s.ExpiresAt,
		MaxDownloads:       s.MaxDownloads,
		DownloadCount:      s.DownloadCount,
		DownloadsRemaining: s.DownloadsRemaining(),
		CreatedAt:          s.CreatedAt,
	}
	if s.File != nil {
		out.FileName = s.File.FileName
	}
	return out
}

// deny 写入分享拒绝响应, 非分享错误按通用错误处理
func (h *ShareHandler) deny(c *gin.Context, err error) {
	if !xerr.IsShareDenial(err) {
		xerr.AbortWithErr(c, err)
		return
	}
	reason := h.shareService.Policy().PublicReason(err)
	status, code := xerr.FromError(err)
	message := err.Error()
	if reason == xerr.ReasonUnavailable {
		status, code, message = http.StatusNotFound, xerr.ShareNotFoundCode, "分享链接不可用"
	}
	retryable := xerr.IsRetryable(err)
	if retryable {
		c.Header("Retry-After", RetryAfterSeconds)
		message = xerr.ErrStoreUnavailable.Error()
	}
	xerr.ErrorWithData(c, status, code, message, VerifyDenied{Granted: false, Reason: reason, Retryable: retryable})
	c.Abort()
}

// CreateShare 创建分享链接
// @Summary 创建分享链接
// @Description 为自己的文件创建分享链接，可设置访问码、密码、有效期和下载次数
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateShareRequest true "分享链接信息"
// @Success 200 {object} xerr.Response{data=CreateShareResponse} "分享链接创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效或有效期超出范围"
// @Failure 403 {object} xerr.Response "无权分享此文件"
// @Failure 404 {object} xerr.Response "文件未找到"
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	res, err := h.shareService.CreateShare(c.Request.Context(), userID, share.CreateShareInput{
		FileID:            req.FileID,
		AccessKey:         req.AccessKey,
		GenerateAccessKey: req.GenerateAccessKey,
		Password:          req.Password,
		ExpiresInMinutes:  req.ExpiresInMinutes,
		MaxDownloads:      req.MaxDownloads,
	})
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接创建成功", CreateShareResponse{
		ShareID:      res.Share.ShareID,
		ShareURL:     res.ShareURL,
		AccessKey:    res.AccessKey,
		ExpiresAt:    res.Share.ExpiresAt,
		MaxDownloads: res.Share.MaxDownloads,
	})
}

// VerifyShare 校验分享凭证并签发下载链接
// @Summary 校验分享并获取下载链接
// @Description 每次成功校验都会消耗一次下载次数, 拒绝时返回 granted=false 和原因
// @Tags 分享
// @Accept json
// @Produce json
// @Param share_id path string true "分享ID"
// @Param request body VerifyShareRequest false "访问码和密码"
// @Success 200 {object} xerr.Response{data=VerifyGranted} "校验通过"
// @Failure 403 {object} xerr.Response{data=VerifyDenied} "凭证错误"
// @Failure 404 {object} xerr.Response{data=VerifyDenied} "分享不可用"
// @Failure 410 {object} xerr.Response{data=VerifyDenied} "分享已过期或次数用完"
// @Failure 429 {object} xerr.Response "请求过于频繁"
// @Failure 503 {object} xerr.Response{data=VerifyDenied} "存储暂不可用, 可重试"
// @Router /api/v1/s/{share_id}/verify [post]
func (h *ShareHandler) VerifyShare(c *gin.Context) {
	var req VerifyShareRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else if err = c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
		// 空请求体等同于不提供凭证
		err = nil
	}
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	grant, err := h.shareService.VerifyShare(c.Request.Context(), c.Param("share_id"),
		share.Credentials{AccessKey: req.AccessKey, Password: req.Password},
		share.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()})
	if err != nil {
		h.deny(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "校验通过", VerifyGranted{
		Granted:            true,
		DownloadRef:        grant.DownloadRef,
		DownloadCount:      grant.DownloadCount,
		DownloadsRemaining: grant.DownloadsRemaining,
		ExpiresAt:          grant.ExpiresAt,
		DownloadExpiresAt:  grant.RefExpiresAt,
	})
}

// InspectShare 查看分享概要
// @Summary 查看分享概要
// @Description 匿名可访问, 不消耗下载次数
// @Tags 分享
// @Produce json
// @Param share_id path string true "分享ID"
// @Success 200 {object} xerr.Response{data=ShareInfoResponse} "分享概要"
// @Failure 404 {object} xerr.Response{data=VerifyDenied} "分享不可用"
// @Router /api/v1/s/{share_id} [get]
func (h *ShareHandler) InspectShare(c *gin.Context) {
	info, err := h.shareService.InspectShare(c.Request.Context(), c.Param("share_id"))
	if err != nil {
		h.deny(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享概要成功", ShareInfoResponse{
		ShareID:            info.ShareID,
		State:              info.State,
		RequiresAccessKey:  info.RequiresAccessKey,
		RequiresPassword:   info.RequiresPassword,
		ExpiresAt:          info.ExpiresAt,
		DownloadsRemaining: info.DownloadsRemaining,
		FileName:           info.FileName,
		FileSize:           info.FileSize,
		ContentType:        info.ContentType,
	})
}

// RevokeShare 撤销分享
// @Summary 撤销分享链接
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param share_id path string true "分享ID"
// @Success 200 {object} xerr.Response{data=OKResponse} "撤销成功"
// @Failure 403 {object} xerr.Response "无权操作"
// @Failure 404 {object} xerr.Response "分享不存在"
// @Failure 410 {object} xerr.Response "分享已过期或次数已用完"
// @Router /api/v1/shares/{share_id} [delete]
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.shareService.RevokeShare(c.Request.Context(), userID, c.Param("share_id")); err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "分享链接已撤销", OKResponse{OK: true})
}

// ListMyShares 我的分享
// @Summary 我创建的分享
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response{data=PageResponse[ShareDetailResponse]} "分享列表"
// @Router /api/v1/shares/my [get]
func (h *ShareHandler) ListMyShares(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	shares, total, err := h.shareService.ListUserShares(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	items := make([]ShareDetailResponse, 0, len(shares))
	for i := range shares {
		items = append(items, h.detail(&shares[i]))
	}
	xerr.Success(c, http.StatusOK, "获取分享列表成功", PageResponse[ShareDetailResponse]{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// GetShare 所有者查看分享详情
// @Summary 分享详情
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param share_id path string true "分享ID"
// @Success 200 {object} xerr.Response{data=ShareDetailResponse} "分享详情"
// @Failure 403 {object} xerr.Response "无权查看"
// @Failure 404 {object} xerr.Response "分享不存在"
// @Router /api/v1/shares/{share_id} [get]
func (h *ShareHandler) GetShare(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	s, err := h.shareService.GetShare(c.Request.Context(), userID, c.Param("share_id"))
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享详情成功", h.detail(s))
}

// ListAccessLogs 分享访问记录
// @Summary 分享访问审计
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param share_id path string true "分享ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} xerr.Response{data=PageResponse[models.ShareAccessLog]} "访问记录"
// @Router /api/v1/shares/{share_id}/access-logs [get]
func (h *ShareHandler) ListAccessLogs(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	logs, total, err := h.shareService.ListAccessLogs(c.Request.Context(), userID, c.Param("share_id"), page, pageSize)
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	if logs == nil {
		logs = []models.ShareAccessLog{}
	}
	xerr.Success(c, http.StatusOK, "获取访问记录成功", PageResponse[models.ShareAccessLog]{Items: logs, Total: total, Page: page, PageSize: pageSize})
}

// QRCode 分享链接二维码
// @Summary 分享链接二维码
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param share_id path string true "分享ID"
// @Success 200 {object} xerr.Response{data=QRCodeResponse} "base64 编码的 PNG"
// @Router /api/v1/shares/{share_id}/qrcode [get]
func (h *ShareHandler) QRCode(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	png, shareURL, err := h.shareService.QRCode(c.Request.Context(), userID, c.Param("share_id"))
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "生成二维码成功", QRCodeResponse{
		QRCode:   base64.StdEncoding.EncodeToString(png),
		ShareURL: shareURL,
	})
}
