package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	nodeService *service.NodeService
}

func NewUserHandler(userService *service.UserService, nodeService *service.NodeService) *UserHandler {
	return &UserHandler{
		userService: userService,
		nodeService: nodeService,
	}
}

// GetInfo 当前用户面板信息
// GET /api/v1/user/info
func (h *UserHandler) GetInfo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.userService.GetInfo(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		internalError(c, err)
		return
	}

	response.Success(c, info)
}

// UpdateProfile 更新用户名、加密方式
// PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameExists):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrInvalidMethod):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// UploadAvatar 上传头像
// POST /api/v1/user/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请选择文件")
		return
	}

	f, err := file.Open()
	if err != nil {
		internalError(c, err)
		return
	}
	defer f.Close()

	avatarURL, err := h.userService.UploadAvatar(userID, f, file.Filename, file.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarTooLarge), errors.Is(err, service.ErrAvatarInvalidType):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrOSSNotConfigured):
			_ = c.Error(err)
			response.ServerError(c, "头像上传暂不可用")
		default:
			internalError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功", gin.H{
		"avatar_url": avatarURL,
	})
}

// GetTraffic 每日流量记录
// GET /api/v1/user/traffic?days=30
func (h *UserHandler) GetTraffic(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.Query("days"))
	items, err := h.userService.GetTraffic(userID, days)
	if err != nil {
		internalError(c, err)
		return
	}

	response.Success(c, items)
}

// GetNodes 当前用户可用节点
// GET /api/v1/user/nodes
func (h *UserHandler) GetNodes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	account, err := h.userService.GetAccount(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		internalError(c, err)
		return
	}

	nodes, err := h.nodeService.UserNodes(c.Request.Context(), account)
	if err != nil {
		internalError(c, err)
		return
	}

	response.Success(c, nodes)
}
