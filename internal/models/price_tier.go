package models

import (
	"time"
)

// PriceTier 商品阶梯价表
type PriceTier struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                          // 主键
	ProductID   uint      `gorm:"not null;uniqueIndex:idx_tier_product_minqty" json:"product_id"` // 商品ID
	MinQuantity int       `gorm:"not null;uniqueIndex:idx_tier_product_minqty" json:"min_quantity"` // 最小数量
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`           // 阶梯单价
	Currency    string    `gorm:"type:varchar(3);default:'NGN'" json:"currency"`                 // 币种
	Label       string    `gorm:"type:varchar(100)" json:"label"`                                // 展示标签（如 "5+ bundles"）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (PriceTier) TableName() string {
	return "price_tiers"
}
