package service

import (
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// PricingService 商品价格解析服务
type PricingService struct {
	productRepo repository.ProductRepository
}

// NewPricingService 创建价格解析服务
func NewPricingService(productRepo repository.ProductRepository) *PricingService {
	return &PricingService{productRepo: productRepo}
}

// ResolveUnitPrice 解析商品当前单价。
// 基础价存在时直接生效；否则取 min_quantity 最小的一档阶梯价，
// 与请求数量无关（沿用既有选档策略），两者皆缺时报价不可用。
func (s *PricingService) ResolveUnitPrice(product *models.Product, quantity int) (models.Money, error) {
	if product == nil {
		return models.Money{}, ErrProductNotFound
	}
	if product.Price != nil {
		return *product.Price, nil
	}
	if tier := lowestTier(product.PriceTiers); tier != nil {
		return tier.Price, nil
	}
	return models.Money{}, ErrPriceUnavailable
}

// ResolveUnitPriceByID 按商品 ID 解析单价
func (s *PricingService) ResolveUnitPriceByID(productID uint, quantity int) (models.Money, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return models.Money{}, err
	}
	if product == nil {
		return models.Money{}, ErrProductNotFound
	}
	return s.ResolveUnitPrice(product, quantity)
}

func lowestTier(tiers []models.PriceTier) *models.PriceTier {
	var lowest *models.PriceTier
	for i := range tiers {
		if lowest == nil || tiers[i].MinQuantity < lowest.MinQuantity {
			lowest = &tiers[i]
		}
	}
	return lowest
}
