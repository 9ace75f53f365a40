package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                        uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo                   string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID                    *uint          `gorm:"index" json:"user_id,omitempty"`                            // 用户ID（游客下单为空）
	Email                     string         `gorm:"index;not null" json:"email"`                               // 收件邮箱
	FullName                  string         `gorm:"type:varchar(200)" json:"full_name"`                        // 收件人姓名
	Phone                     string         `gorm:"type:varchar(32)" json:"phone"`                             // 联系电话
	Address                   string         `gorm:"type:text" json:"address"`                                  // 收货地址
	City                      string         `gorm:"type:varchar(100)" json:"city"`                             // 城市
	State                     string         `gorm:"type:varchar(100)" json:"state"`                            // 州/省
	Status                    string         `gorm:"index;not null;default:'new'" json:"status"`                // 履约状态
	PaymentStatus             string         `gorm:"index;not null;default:'pending'" json:"payment_status"`    // 支付状态
	Currency                  string         `gorm:"not null;default:'NGN'" json:"currency"`                    // 币种
	Subtotal                  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 下单时购物车小计
	TotalAmount               Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额（核销时以网关回报为准）
	PaymentMethod             string         `gorm:"type:varchar(50)" json:"payment_method,omitempty"`          // 支付渠道（网关回报）
	PaymentReference          string         `gorm:"uniqueIndex;type:varchar(100)" json:"payment_reference"`    // 网关支付引用
	AuthorizationURL          string         `gorm:"type:varchar(500)" json:"-"`                                // 网关收银台地址
	GatewayMetaJSON           JSON           `gorm:"type:json" json:"-"`                                        // 最近一次网关回执元数据
	ClientIP                  string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	AdminNote                 string         `gorm:"type:text" json:"-"`                                        // 员工备注
	PaidAt                    *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CanceledAt                *time.Time     `gorm:"index" json:"canceled_at"`                                  // 取消时间
	ConfirmationSentAt        *time.Time     `json:"-"`                                                         // 下单确认邮件送达标记
	PaymentConfirmationSentAt *time.Time     `json:"-"`                                                         // 支付确认邮件送达标记
	CreatedAt                 time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt                 time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	User  *User       `gorm:"foreignKey:UserID" json:"-"`                // 关联用户
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
