package repository

import (
	"errors"

	"github.com/poshpearl/poshpearl/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	ListTiers(productID uint) ([]models.PriceTier, error)
	ReplaceTiers(productID uint, tiers []models.PriceTier) error
	AddImage(image *models.ProductImage) error
	DeleteImage(productID, imageID uint) error
	CountImages(productID uint) (int64, error)
	DecrementStock(productID uint, quantity int) (int64, error)
	IncrementStock(productID uint, quantity int) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.WithCategory {
		query = query.Preload("Category")
	}
	if filter.WithTiers {
		query = query.Preload("PriceTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity asc")
		})
	}
	query = query.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	})

	switch filter.Sort {
	case ProductSortNewest:
		query = query.Order("created_at desc, id desc")
	case ProductSortPriceAsc:
		query = query.Order("price asc, id desc")
	case ProductSortPriceDesc:
		query = query.Order("price desc, id desc")
	default:
		query = query.Order("sort_order asc, id desc")
	}

	var products []models.Product
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) preloadAll(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		}).
		Preload("PriceTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity asc")
		})
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.preloadAll(r.db).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := r.preloadAll(r.db).Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品（带阶梯价）
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Preload("PriceTiers", func(db *gorm.DB) *gorm.DB {
		return db.Order("min_quantity asc")
	}).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// ListTiers 获取商品阶梯价（按最小数量升序）
func (r *GormProductRepository) ListTiers(productID uint) ([]models.PriceTier, error) {
	var tiers []models.PriceTier
	if err := r.db.Where("product_id = ?", productID).
		Order("min_quantity asc").
		Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// ReplaceTiers 整体替换商品阶梯价
func (r *GormProductRepository) ReplaceTiers(productID uint, tiers []models.PriceTier) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.PriceTier{}).Error; err != nil {
			return err
		}
		for i := range tiers {
			tiers[i].ID = 0
			tiers[i].ProductID = productID
		}
		if len(tiers) > 0 {
			if err := tx.Create(&tiers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddImage 新增商品图片
func (r *GormProductRepository) AddImage(image *models.ProductImage) error {
	return r.db.Create(image).Error
}

// DeleteImage 删除商品图片
func (r *GormProductRepository) DeleteImage(productID, imageID uint) error {
	return r.db.Where("product_id = ?", productID).Delete(&models.ProductImage{}, imageID).Error
}

// CountImages 统计商品图片数量
func (r *GormProductRepository) CountImages(productID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// DecrementStock 条件扣减库存，库存不足时不更新
func (r *GormProductRepository) DecrementStock(productID uint, quantity int) (int64, error) {
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	return result.RowsAffected, result.Error
}

// IncrementStock 回补库存（订单取消时）
func (r *GormProductRepository) IncrementStock(productID uint, quantity int) error {
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
