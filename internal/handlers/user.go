package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/services/admin"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe 获取当前登录用户信息
// @Summary 获取当前用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response{data=models.User} "用户信息"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "用户不存在"
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUserProfile(userID)
	if err != nil {
		xerr.AbortWithErr(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取用户信息成功", user)
}
