package service

import (
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// WishlistService 心愿单服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// List 获取用户心愿单
func (s *WishlistService) List(userID uint) ([]models.WishlistItem, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	return s.wishlistRepo.ListByUser(userID)
}

// Add 添加心愿单项（重复添加视为成功）
func (s *WishlistService) Add(userID, productID uint) (*models.WishlistItem, error) {
	if userID == 0 || productID == 0 {
		return nil, ErrWishlistItemNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlistRepo.Add(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// Remove 移除心愿单项
func (s *WishlistService) Remove(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrWishlistItemNotFound
	}
	exists, err := s.wishlistRepo.Exists(userID, productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWishlistItemNotFound
	}
	return s.wishlistRepo.Remove(userID, productID)
}
