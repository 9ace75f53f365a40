package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

const productListingCacheTTL = time.Minute

// ProductListInput 商品列表查询输入
type ProductListInput struct {
	Page       int
	PageSize   int
	CategoryID string
	Search     string
	Featured   *bool
	MinPrice   string
	MaxPrice   string
	Sort       string
	OnlyActive bool
}

// ProductListing 商品列表结果（可整体缓存）
type ProductListing struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ProductInput 商品创建/更新输入
type ProductInput struct {
	CategoryID        *uint
	Slug              string
	SKU               string
	Name              string
	Description       string
	Price             *models.Money
	CompareAtPrice    *models.Money
	Currency          string
	Stock             int
	LowStockThreshold int
	IsActive          *bool
	IsFeatured        *bool
	SortOrder         int
}

// PriceTierInput 阶梯价输入
type PriceTierInput struct {
	MinQuantity int
	Price       models.Money
	Currency    string
	Label       string
}

// ProductService 商品服务
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// List 商品列表
func (s *ProductService) List(input ProductListInput) ([]models.Product, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.PageSize <= 0 || input.PageSize > 100 {
		input.PageSize = 20
	}
	return s.productRepo.List(repository.ProductListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		CategoryID:   strings.TrimSpace(input.CategoryID),
		Search:       strings.TrimSpace(input.Search),
		Featured:     input.Featured,
		MinPrice:     parseMoneyFilter(input.MinPrice),
		MaxPrice:     parseMoneyFilter(input.MaxPrice),
		Sort:         strings.TrimSpace(input.Sort),
		OnlyActive:   input.OnlyActive,
		WithCategory: true,
		WithTiers:    true,
	})
}

// ListPublic 带缓存的在售商品列表。
// 缓存键覆盖全部查询参数，短 TTL 兜底失效，后台改动最多延迟一个 TTL 可见。
func (s *ProductService) ListPublic(ctx context.Context, input ProductListInput) ([]models.Product, int64, error) {
	input.OnlyActive = true
	key := publicListingCacheKey(input)

	var cached ProductListing
	if found, err := cache.GetJSON(ctx, key, &cached); err == nil && found {
		return cached.Products, cached.Total, nil
	}

	products, total, err := s.List(input)
	if err != nil {
		return nil, 0, err
	}
	_ = cache.SetJSON(ctx, key, ProductListing{Products: products, Total: total}, productListingCacheTTL)
	return products, total, nil
}

func publicListingCacheKey(input ProductListInput) string {
	featured := ""
	if input.Featured != nil {
		featured = strconv.FormatBool(*input.Featured)
	}
	return fmt.Sprintf("catalog:list:p%d:s%d:c%s:q%s:f%s:lo%s:hi%s:o%s",
		input.Page, input.PageSize,
		strings.TrimSpace(input.CategoryID), strings.TrimSpace(input.Search),
		featured, strings.TrimSpace(input.MinPrice), strings.TrimSpace(input.MaxPrice),
		strings.TrimSpace(input.Sort),
	)
}

func parseMoneyFilter(raw string) *models.Money {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return nil
	}
	m := models.NewMoneyFromDecimal(amount)
	return &m
}

// GetBySlug 商品详情（slug）
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetByID 商品详情（ID）
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNotAvailable
	}
	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	slug, err := s.ensureUniqueSlug(slug, 0)
	if err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		// 未指定货号时沿用 slug 的大写形式
		sku = strings.ToUpper(slug)
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	isFeatured := false
	if input.IsFeatured != nil {
		isFeatured = *input.IsFeatured
	}
	product := &models.Product{
		CategoryID:        input.CategoryID,
		Slug:              slug,
		SKU:               sku,
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		Price:             input.Price,
		CompareAtPrice:    input.CompareAtPrice,
		Currency:          normalizeCurrency(input.Currency),
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		IsActive:          isActive,
		IsFeatured:        isFeatured,
		SortOrder:         input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if slug := strings.TrimSpace(input.Slug); slug != "" && slug != product.Slug {
		existing, err := s.productRepo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrProductSlugTaken
		}
		product.Slug = slug
	}
	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = input.CategoryID
	}
	if sku := strings.TrimSpace(input.SKU); sku != "" {
		product.SKU = sku
	}
	product.Description = strings.TrimSpace(input.Description)
	if input.Price != nil {
		product.Price = input.Price
	}
	if input.CompareAtPrice != nil {
		product.CompareAtPrice = input.CompareAtPrice
	}
	if currency := normalizeCurrency(input.Currency); currency != "" {
		product.Currency = currency
	}
	if input.Stock >= 0 {
		product.Stock = input.Stock
	}
	if input.LowStockThreshold >= 0 {
		product.LowStockThreshold = input.LowStockThreshold
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	product.SortOrder = input.SortOrder

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

// ReplaceTiers 整体替换商品阶梯价
func (s *ProductService) ReplaceTiers(productID uint, inputs []PriceTierInput) ([]models.PriceTier, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	seen := make(map[int]bool, len(inputs))
	tiers := make([]models.PriceTier, 0, len(inputs))
	for _, input := range inputs {
		if input.MinQuantity < 1 || input.Price.IsNegative() {
			return nil, ErrInvalidPriceTier
		}
		if seen[input.MinQuantity] {
			return nil, ErrInvalidPriceTier
		}
		seen[input.MinQuantity] = true
		currency := normalizeCurrency(input.Currency)
		if currency == "" {
			currency = product.Currency
		}
		tiers = append(tiers, models.PriceTier{
			ProductID:   productID,
			MinQuantity: input.MinQuantity,
			Price:       input.Price,
			Currency:    currency,
			Label:       strings.TrimSpace(input.Label),
		})
	}
	if err := s.productRepo.ReplaceTiers(productID, tiers); err != nil {
		return nil, err
	}
	return s.productRepo.ListTiers(productID)
}

// AddImage 新增商品图片，超出数量上限时拒绝
func (s *ProductService) AddImage(productID uint, path, altText string, sortOrder int, isPrimary bool) (*models.ProductImage, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	count, err := s.productRepo.CountImages(productID)
	if err != nil {
		return nil, err
	}
	if count >= constants.ProductImageMaxCount {
		return nil, ErrImageLimitExceeded
	}

	image := &models.ProductImage{
		ProductID: productID,
		Path:      strings.TrimSpace(path),
		AltText:   strings.TrimSpace(altText),
		IsPrimary: isPrimary,
		SortOrder: sortOrder,
	}
	if image.Path == "" {
		return nil, ErrImageInvalid
	}
	if err := s.productRepo.AddImage(image); err != nil {
		return nil, err
	}
	return image, nil
}

// DeleteImage 删除商品图片
func (s *ProductService) DeleteImage(productID, imageID uint) error {
	return s.productRepo.DeleteImage(productID, imageID)
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ensureUniqueSlug 对撞名 slug 追加序号后缀
func (s *ProductService) ensureUniqueSlug(slug string, selfID uint) (string, error) {
	candidate := slug
	for i := 2; ; i++ {
		existing, err := s.productRepo.GetBySlug(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil || existing.ID == selfID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}
