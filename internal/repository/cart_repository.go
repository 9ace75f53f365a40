package repository

import (
	"errors"
	"strings"

	"github.com/poshpearl/poshpearl/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetOrCreateByUser(userID uint) (*models.Cart, error)
	GetOrCreateBySession(sessionKey string) (*models.Cart, error)
	GetBySession(sessionKey string) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	GetItem(cartID, productID uint) (*models.CartItem, error)
	UpsertItem(item *models.CartItem) error
	DeleteItem(cartID, productID uint) error
	Clear(cartID uint) error
	Delete(cartID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetOrCreateByUser 获取或创建用户购物车
func (r *GormCartRepository) GetOrCreateByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cart = models.Cart{UserID: &userID}
	if err := r.db.Create(&cart).Error; err != nil {
		// 并发创建撞唯一索引时重读
		var existing models.Cart
		if rerr := r.db.Where("user_id = ?", userID).First(&existing).Error; rerr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateBySession 获取或创建匿名会话购物车
func (r *GormCartRepository) GetOrCreateBySession(sessionKey string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("session_key = ?", sessionKey).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cart = models.Cart{SessionKey: &sessionKey}
	if err := r.db.Create(&cart).Error; err != nil {
		var existing models.Cart
		if rerr := r.db.Where("session_key = ?", sessionKey).First(&existing).Error; rerr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetBySession 获取匿名会话购物车（不存在返回 nil）
func (r *GormCartRepository) GetBySession(sessionKey string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("session_key = ?", sessionKey).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// ListItems 获取购物车项
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").
		Preload("Product.PriceTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity asc")
		}).
		Where("cart_id = ?", cartID).
		Order("updated_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem 获取购物车项（不存在返回 nil）
func (r *GormCartRepository) GetItem(cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertItem 添加或更新购物车项
func (r *GormCartRepository) UpsertItem(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if cerr := r.db.Create(item).Error; cerr != nil {
			// 并发插入撞唯一索引时改走更新路径
			if isDuplicateKeyErr(cerr) {
				return r.db.Model(&models.CartItem{}).
					Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
					Updates(map[string]interface{}{
						"quantity":   item.Quantity,
						"unit_price": item.UnitPrice,
						"currency":   item.Currency,
						"updated_at": item.UpdatedAt,
					}).Error
			}
			return cerr
		}
		return nil
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"quantity":   item.Quantity,
		"unit_price": item.UnitPrice,
		"currency":   item.Currency,
		"updated_at": item.UpdatedAt,
	}
	return r.db.Model(&existing).Updates(updates).Error
}

// isDuplicateKeyErr 识别唯一索引冲突（方言间错误文案不同）
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry")
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(cartID, productID uint) error {
	return r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{}).Error
}

// Clear 清空购物车项
func (r *GormCartRepository) Clear(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// Delete 删除购物车本身
func (r *GormCartRepository) Delete(cartID uint) error {
	if err := r.Clear(cartID); err != nil {
		return err
	}
	return r.db.Delete(&models.Cart{}, cartID).Error
}
