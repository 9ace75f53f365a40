package admin

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/service"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	CategoryID        *uint         `json:"category_id"`
	Slug              string        `json:"slug"`
	SKU               string        `json:"sku"`
	Name              string        `json:"name" binding:"required"`
	Description       string        `json:"description"`
	Price             *models.Money `json:"price"`
	CompareAtPrice    *models.Money `json:"compare_at_price"`
	Currency          string        `json:"currency"`
	Stock             int           `json:"stock"`
	LowStockThreshold int           `json:"low_stock_threshold"`
	IsActive          *bool         `json:"is_active"`
	IsFeatured        *bool         `json:"is_featured"`
	SortOrder         int           `json:"sort_order"`
}

// PriceTierRequest 阶梯价请求
type PriceTierRequest struct {
	Tiers []struct {
		MinQuantity int          `json:"min_quantity" binding:"required"`
		Price       models.Money `json:"price"`
		Currency    string       `json:"currency"`
		Label       string       `json:"label"`
	} `json:"tiers" binding:"required"`
}

// GetProducts 商品列表（含下架商品）
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(service.ProductListInput{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: strings.TrimSpace(c.Query("category")),
		Search:     strings.TrimSpace(c.Query("search")),
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

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "failed to load product")
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.Create(productInputFromRequest(req))
	if err != nil {
		respondServiceError(c, err, "failed to create product")
		return
	}
	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "slug", product.Slug)
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	product, err := h.ProductService.Update(id, productInputFromRequest(req))
	if err != nil {
		respondServiceError(c, err, "failed to update product")
		return
	}
	response.Success(c, product)
}

func productInputFromRequest(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		CategoryID:        req.CategoryID,
		Slug:              req.Slug,
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		CompareAtPrice:    req.CompareAtPrice,
		Currency:          req.Currency,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
		IsFeatured:        req.IsFeatured,
		SortOrder:         req.SortOrder,
	}
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		respondServiceError(c, err, "failed to delete product")
		return
	}
	requestLog(c).Infow("admin_product_deleted", "product_id", id)
	response.Success(c, gin.H{"deleted": true})
}

// ReplaceProductTiers 重建商品阶梯价
func (h *Handler) ReplaceProductTiers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PriceTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	inputs := make([]service.PriceTierInput, 0, len(req.Tiers))
	for _, tier := range req.Tiers {
		inputs = append(inputs, service.PriceTierInput{
			MinQuantity: tier.MinQuantity,
			Price:       tier.Price,
			Currency:    tier.Currency,
			Label:       tier.Label,
		})
	}
	tiers, err := h.ProductService.ReplaceTiers(id, inputs)
	if err != nil {
		respondServiceError(c, err, "failed to replace price tiers")
		return
	}
	response.Success(c, gin.H{"tiers": tiers})
}

// UploadProductImage 上传商品图片
func (h *Handler) UploadProductImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "missing file", err)
		return
	}
	path, err := h.UploadService.SaveProductImage(file)
	if err != nil {
		respondServiceError(c, err, "failed to save image")
		return
	}
	sortOrder, _ := strconv.Atoi(c.PostForm("sort_order"))
	isPrimary, _ := strconv.ParseBool(c.PostForm("is_primary"))
	image, err := h.ProductService.AddImage(id, path, c.PostForm("alt_text"), sortOrder, isPrimary)
	if err != nil {
		respondServiceError(c, err, "failed to attach image")
		return
	}
	requestLog(c).Infow("admin_product_image_uploaded", "product_id", id, "image_id", image.ID)
	response.Success(c, image)
}

// DeleteProductImage 删除商品图片
func (h *Handler) DeleteProductImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(c, "image_id")
	if !ok {
		return
	}
	if err := h.ProductService.DeleteImage(id, imageID); err != nil {
		respondServiceError(c, err, "failed to delete image")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
