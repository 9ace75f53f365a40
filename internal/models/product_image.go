package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductImage 商品图片表
type ProductImage struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	ProductID uint           `gorm:"not null;index" json:"product_id"`  // 商品ID
	Path      string         `gorm:"type:varchar(500);not null" json:"path"` // 图片路径
	AltText   string         `gorm:"type:varchar(200)" json:"alt_text"` // 替代文本
	IsPrimary bool           `gorm:"default:false" json:"is_primary"`   // 主图标记
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (ProductImage) TableName() string {
	return "product_images"
}
