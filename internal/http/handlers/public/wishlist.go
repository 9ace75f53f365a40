package public

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
)

// GetWishlist 心愿单列表（需登录）
func (h *Handler) GetWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load wishlist", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddWishlistItem 加入心愿单（幂等）
func (h *Handler) AddWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	item, err := h.WishlistService.Add(uid, req.ProductID)
	if err != nil {
		respondWithMappedError(c, err, wishlistErrorRules, response.CodeInternal, "failed to add wishlist item")
		return
	}
	response.Success(c, item)
}

// RemoveWishlistItem 移出心愿单
func (h *Handler) RemoveWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", err)
		return
	}
	if err := h.WishlistService.Remove(uid, uint(productID)); err != nil {
		respondWithMappedError(c, err, wishlistErrorRules, response.CodeInternal, "failed to remove wishlist item")
		return
	}
	response.Success(c, gin.H{"removed": true})
}
