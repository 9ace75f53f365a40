package repository

import (
	"time"

	"github.com/poshpearl/poshpearl/internal/models"
)

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   string
	Search       string
	Featured     *bool
	MinPrice     *models.Money
	MaxPrice     *models.Money
	Sort         string
	OnlyActive   bool
	WithCategory bool
	WithTiers    bool
}

// 商品列表排序方式
const (
	ProductSortDefault   = ""
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
)

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	Email         string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	StaffOnly   bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
