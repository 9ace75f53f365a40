package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem 购物车项。
// 行记录是临时数据，删除即物理删除：软删除会让唯一索引
// 继续覆盖已删行，导致同商品无法再次加车。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                    // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`    // 购物车ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"` // 商品ID
	Quantity  int       `gorm:"not null" json:"quantity"`                                // 数量
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 加入时解析出的单价
	Currency  string    `gorm:"type:varchar(3);default:'NGN'" json:"currency"`           // 加入时的币种
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                 // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal 返回行小计
func (i CartItem) LineTotal() Money {
	return NewMoneyFromDecimal(i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))))
}
