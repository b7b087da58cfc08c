package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

// HeaderNodeKey 节点上报时携带的密钥
const HeaderNodeKey = "X-Node-Key"

type NodeHandler struct {
	nodeService *service.NodeService
}

func NewNodeHandler(nodeService *service.NodeService) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
	}
}

// Heartbeat 节点心跳
// POST /api/v1/node/heartbeat
func (h *NodeHandler) Heartbeat(c *gin.Context) {
	key := c.GetHeader(HeaderNodeKey)
	if key == "" {
		response.AuthError(c, "缺少节点密钥")
		return
	}

	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.nodeService.Heartbeat(c.Request.Context(), key, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrNodeNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidNodeKey):
			response.AuthError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, nil)
}
