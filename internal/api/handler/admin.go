package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/api/middleware"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
	nodeService  *service.NodeService
}

func NewAdminHandler(adminService *service.AdminService, nodeService *service.NodeService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		nodeService:  nodeService,
	}
}

func requireAdmin(c *gin.Context) bool {
	if err := service.RequireAdmin(middleware.GetClaims(c)); err != nil {
		response.PermissionError(c, err.Error())
		return false
	}
	return true
}

// GenerateCodes 批量生成充值码
// POST /api/v1/admin/codes
func (h *AdminHandler) GenerateCodes(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var req dto.GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.adminService.GenerateCodes(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCount), errors.Is(err, service.ErrInvalidAmount):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrCodeCollision):
			response.ConflictError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, resp)
}

// ListCodes 充值码列表
// GET /api/v1/admin/codes?used=true&page=1
func (h *AdminHandler) ListCodes(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var used *bool
	if raw := c.Query("used"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.ParamError(c, "used 参数无效")
			return
		}
		used = &v
	}

	page, size := pagination(c)
	items, total, err := h.adminService.ListCodes(used, page, size)
	if err != nil {
		internalError(c, err)
		return
	}

	response.SuccessPage(c, total, page, size, items)
}

// Credit 给用户加款
// POST /api/v1/admin/users/:id/credit
func (h *AdminHandler) Credit(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.adminService.Credit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrAccountNotFound):
			response.NotFoundError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, resp)
}

// CreateNode 新增节点
// POST /api/v1/admin/nodes
func (h *AdminHandler) CreateNode(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	h.saveNode(c, 0)
}

// UpdateNode 修改节点
// PUT /api/v1/admin/nodes/:id
func (h *AdminHandler) UpdateNode(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.saveNode(c, id)
}

func (h *AdminHandler) saveNode(c *gin.Context, id int64) {
	var req dto.SaveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	node, err := h.nodeService.SaveNode(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNodeNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		internalError(c, err)
		return
	}

	response.Success(c, node)
}

// CreateProduct 新增商品
// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var req dto.SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.adminService.CreateProduct(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidProductContent):
			response.ParamError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.Success(c, item)
}
