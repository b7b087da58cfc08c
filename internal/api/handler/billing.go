package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// ListProducts 商店商品列表
// GET /api/v1/shop
func (h *BillingHandler) ListProducts(c *gin.Context) {
	items, err := h.billingService.ListProducts()
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, items)
}

// Buy 购买商品
// POST /api/v1/shop/:id/buy
func (h *BillingHandler) Buy(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.billingService.Purchase(c.Request.Context(), userID, productID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrAccountNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrProductInactive):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrInsufficientBalance):
			response.BalanceError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "购买成功", receipt)
}

// Redeem 兑换充值码
// POST /api/v1/user/redeem
func (h *BillingHandler) Redeem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	receipt, err := h.billingService.Redeem(c.Request.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrCodeNotFound), errors.Is(err, service.ErrAccountNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrCodeAlreadyUsed):
			response.AlreadyUsedError(c, err.Error())
		case errors.Is(err, service.ErrRedeemRateLimited):
			response.RateLimitError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "充值成功", receipt)
}

// ListPurchases 购买记录
// GET /api/v1/user/purchases?page=1&page_size=20
func (h *BillingHandler) ListPurchases(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	items, total, err := h.billingService.ListPurchases(userID, page, size)
	if err != nil {
		internalError(c, err)
		return
	}

	response.SuccessPage(c, total, page, size, items)
}

// RedeemQuota 本小时剩余兑换次数
// GET /api/v1/user/redeem
func (h *BillingHandler) RedeemQuota(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	remaining, err := h.billingService.RedeemRemaining(userID)
	if err != nil {
		internalError(c, err)
		return
	}

	response.Success(c, gin.H{"remaining": remaining})
}
