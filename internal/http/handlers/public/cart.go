package public

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// GetCart 获取购物车汇总
func (h *Handler) GetCart(c *gin.Context) {
	identity, ok := cartIdentity(c)
	if !ok {
		return
	}
	summary, err := h.CartService.Summarize(identity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to load cart")
		return
	}
	response.Success(c, summary)
}

// AddCartItem 加入购物车（已存在的行累加数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	identity, ok := cartIdentity(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.CartService.AddItem(identity, req.ProductID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to update cart")
		return
	}
	summary, err := h.CartService.Summarize(identity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to load cart")
		return
	}
	response.Success(c, summary)
}

// UpdateCartItem 调整购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	identity, ok := cartIdentity(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", err)
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.CartService.SetItemQuantity(identity, uint(productID), req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to update cart")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem 移除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	identity, ok := cartIdentity(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", err)
		return
	}
	if err := h.CartService.RemoveItem(identity, uint(productID)); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to remove cart item")
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	identity, ok := cartIdentity(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(identity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to clear cart")
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
