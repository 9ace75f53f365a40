package public

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/service"
)

// GetConfig 获取站点公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	data, err := h.SettingService.GetSiteConfig(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load site config", err)
		return
	}
	response.Success(c, data)
}

// ListProducts 商品列表（仅在售商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	var featured *bool
	if raw := strings.TrimSpace(c.Query("featured")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			featured = &v
		}
	}
	products, total, err := h.ProductService.ListPublic(c.Request.Context(), service.ProductListInput{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: strings.TrimSpace(c.Query("category")),
		Search:     strings.TrimSpace(c.Query("search")),
		Featured:   featured,
		MinPrice:   c.Query("min_price"),
		MaxPrice:   c.Query("max_price"),
		Sort:       c.Query("sort"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list products", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProduct 商品详情（按 slug）
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.GetBySlug(c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to load product")
		return
	}
	if !product.IsActive {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, gin.H{
		"product":      product,
		"stock_status": product.StockStatus(),
	})
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list categories", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}
