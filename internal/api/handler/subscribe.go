package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

type SubscribeHandler struct {
	subscribeService *service.SubscribeService
}

func NewSubscribeHandler(subscribeService *service.SubscribeService) *SubscribeHandler {
	return &SubscribeHandler{
		subscribeService: subscribeService,
	}
}

// Fetch 客户端拉取订阅，错误一律返回纯文本
// GET /api/v1/subscribe/:token?target=clash
func (h *SubscribeHandler) Fetch(c *gin.Context) {
	doc, err := h.subscribeService.Render(c.Request.Context(), c.Param("token"), c.Query("target"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			response.PlainText(c, http.StatusNotFound, "Subscription not found")
		case errors.Is(err, service.ErrAccountExpired):
			response.PlainText(c, http.StatusForbidden, "Account expired")
		default:
			_ = c.Error(err)
			response.PlainText(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	for k, v := range doc.Headers {
		c.Header(k, v)
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// GetLink 当前用户的订阅链接，不存在时创建
// GET /api/v1/user/subscription
func (h *SubscribeHandler) GetLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.subscribeService.GetLink(userID)
	if err != nil {
		internalError(c, err)
		return
	}

	response.Success(c, resp)
}

// ResetLink 重置订阅 token，旧链接立即失效
// POST /api/v1/user/subscription/reset
func (h *SubscribeHandler) ResetLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.subscribeService.ResetLink(userID)
	if err != nil {
		internalError(c, err)
		return
	}

	response.SuccessWithMessage(c, "订阅链接已重置", resp)
}
