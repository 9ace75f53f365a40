package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/constants"
)

// Product 商品表
type Product struct {
	ID                uint           `gorm:"primarykey" json:"id"`                          // 主键
	CategoryID        *uint          `gorm:"index" json:"category_id"`                      // 分类ID（可空）
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`              // 唯一标识（缺省由名称派生）
	SKU               string         `gorm:"uniqueIndex;not null" json:"sku"`               // 商品编码（缺省由 slug 派生）
	Name              string         `gorm:"not null;index" json:"name"`                    // 商品名称
	Description       string         `gorm:"type:text" json:"description"`                  // 商品描述
	Price             *Money         `gorm:"type:decimal(20,2)" json:"price"`               // 基础价格（可空，空则仅按阶梯价出售）
	CompareAtPrice    *Money         `gorm:"type:decimal(20,2)" json:"compare_at_price"`    // 划线价（可空）
	Currency          string         `gorm:"type:varchar(3);default:'NGN'" json:"currency"` // 币种
	Stock             int            `gorm:"not null;default:0" json:"stock"`               // 库存数量
	LowStockThreshold int            `gorm:"default:0" json:"low_stock_threshold"`          // 低库存阈值（0 取站点默认）
	IsActive          bool           `gorm:"not null;index" json:"is_active"`               // 是否上架（false 即草稿，显式写入避免列默认值吞掉零值）
	IsFeatured        bool           `gorm:"not null;index" json:"is_featured"`             // 是否精选
	SortOrder         int            `gorm:"default:0;index" json:"sort_order"`             // 排序权重
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                    // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	// 关联
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Images     []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`    // 图片列表
	PriceTiers []PriceTier    `gorm:"foreignKey:ProductID" json:"price_tiers,omitempty"` // 阶梯价列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// StockStatus 返回库存状态标签
func (p Product) StockStatus() string {
	switch {
	case p.Stock <= 0:
		return constants.ProductStockStatusOutOfStock
	case p.Stock <= p.lowStockThreshold():
		return constants.ProductStockStatusLowStock
	default:
		return constants.ProductStockStatusInStock
	}
}

func (p Product) lowStockThreshold() int {
	if p.LowStockThreshold > 0 {
		return p.LowStockThreshold
	}
	return constants.ProductLowStockThreshold
}
