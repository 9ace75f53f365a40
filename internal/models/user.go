package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 用户表（含员工账号）
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                // 主键
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`   // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                   // 密码哈希（不返回给前端）
	FirstName          string         `gorm:"default:''" json:"first_name"`        // 名
	LastName           string         `gorm:"default:''" json:"last_name"`         // 姓
	Phone              string         `gorm:"type:varchar(32)" json:"phone"`       // 电话
	CompanyName        string         `gorm:"type:varchar(200)" json:"company_name"` // 公司名（批发客户）
	IsDistributor      bool           `gorm:"default:false" json:"is_distributor"` // 分销商标记
	Status             string         `gorm:"default:'active'" json:"status"`      // 账号状态
	IsStaff            bool           `gorm:"not null;default:false" json:"-"`     // 员工标记（后台权限）
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`         // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                      // 该时间点前签发的 Token 失效
	AutoCreated        bool           `gorm:"default:false" json:"-"`              // 结账时自动开户标记
	WelcomeSentAt      *time.Time     `json:"-"`                                   // 欢迎邮件送达标记
	ResetToken         string         `gorm:"index;type:varchar(128)" json:"-"`    // 密码重置令牌
	ResetTokenExpires  *time.Time     `json:"-"`                                   // 密码重置令牌过期时间
	LastLoginAt        *time.Time     `json:"last_login_at"`                       // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`             // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                      // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// FullName 返回拼接后的姓名
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
