package service

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// CartIdentity 购物车归属（登录用户或匿名会话，二选一）
type CartIdentity struct {
	UserID     uint
	SessionKey string
}

// Valid 是否携带有效身份
func (id CartIdentity) Valid() bool {
	return id.UserID > 0 || id.SessionKey != ""
}

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	Currency  string          `json:"currency"`
	Product   *models.Product `json:"product"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	CartID    uint             `json:"cart_id"`
	Items     []CartItemDetail `json:"items"`
	ItemCount int              `json:"item_count"`
	Subtotal  models.Money     `json:"subtotal"`
	Currency  string           `json:"currency"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     *PricingService
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, pricing *PricingService) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
	}
}

func (s *CartService) resolveCart(identity CartIdentity) (*models.Cart, error) {
	if identity.UserID > 0 {
		return s.cartRepo.GetOrCreateByUser(identity.UserID)
	}
	if identity.SessionKey != "" {
		return s.cartRepo.GetOrCreateBySession(identity.SessionKey)
	}
	return nil, ErrCartNotFound
}

// Summarize 获取购物车汇总。
// 行金额取加入时固化的单价；已下架或被删除的商品直接剔除，
// 固化价缺失或非法的行按当前价格重新定价，仍无法定价则删除。
func (s *CartService) Summarize(identity CartIdentity) (*CartSummary, error) {
	cart, err := s.resolveCart(identity)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		CartID:   cart.ID,
		Items:    make([]CartItemDetail, 0, len(items)),
		Currency: constants.DefaultCurrency,
	}
	subtotal := decimal.Zero
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			_ = s.cartRepo.DeleteItem(cart.ID, item.ProductID)
			continue
		}
		unitPrice := item.UnitPrice
		if !unitPrice.IsPositive() {
			repriced, err := s.pricing.ResolveUnitPrice(product, item.Quantity)
			if err != nil {
				_ = s.cartRepo.DeleteItem(cart.ID, item.ProductID)
				continue
			}
			unitPrice = repriced
			item.UnitPrice = repriced
			item.UpdatedAt = time.Now()
			_ = s.cartRepo.UpsertItem(&item)
		}
		currency := item.Currency
		if currency == "" {
			currency = productCurrency(product)
		}
		lineTotal := models.NewMoneyFromDecimal(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		summary.Items = append(summary.Items, CartItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
			Currency:  currency,
			Product:   product,
		})
		summary.ItemCount += item.Quantity
		summary.Currency = currency
		subtotal = subtotal.Add(lineTotal.Decimal)
	}
	summary.Subtotal = models.NewMoneyFromDecimal(subtotal)
	return summary, nil
}

// AddItem 加入购物车。已存在的行累加数量，并以当前解析价刷新固化单价。
func (s *CartService) AddItem(identity CartIdentity, productID uint, quantity int) error {
	if !identity.Valid() || productID == 0 {
		return ErrInvalidCartItem
	}
	if quantity < 1 {
		return ErrInvalidCartItem
	}
	cart, err := s.resolveCart(identity)
	if err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	unitPrice, err := s.pricing.ResolveUnitPrice(product, quantity)
	if err != nil {
		return err
	}

	// 读增写在同一事务内，并发加车时唯一索引把输家压回更新路径
	return models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		existing, err := cartRepo.GetItem(cart.ID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			quantity += existing.Quantity
		}
		return cartRepo.UpsertItem(&models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Currency:  productCurrency(product),
			UpdatedAt: time.Now(),
		})
	})
}

// SetItemQuantity 覆写购物车项数量，数量为 0 时删除该行
func (s *CartService) SetItemQuantity(identity CartIdentity, productID uint, quantity int) error {
	if !identity.Valid() || productID == 0 || quantity < 0 {
		return ErrInvalidCartItem
	}
	cart, err := s.resolveCart(identity)
	if err != nil {
		return err
	}
	if quantity == 0 {
		return s.cartRepo.DeleteItem(cart.ID, productID)
	}
	existing, err := s.cartRepo.GetItem(cart.ID, productID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCartItemNotFound
	}
	existing.Quantity = quantity
	existing.UpdatedAt = time.Now()
	return s.cartRepo.UpsertItem(existing)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(identity CartIdentity, productID uint) error {
	if !identity.Valid() || productID == 0 {
		return ErrInvalidCartItem
	}
	cart, err := s.resolveCart(identity)
	if err != nil {
		return err
	}
	return s.cartRepo.DeleteItem(cart.ID, productID)
}

// Clear 清空购物车
func (s *CartService) Clear(identity CartIdentity) error {
	if !identity.Valid() {
		return ErrCartNotFound
	}
	cart, err := s.resolveCart(identity)
	if err != nil {
		return err
	}
	return s.cartRepo.Clear(cart.ID)
}

// MergeOnLogin 登录后把匿名购物车合并到用户购物车。
// 冲突项取数量较大一方，合并后删除匿名购物车。
func (s *CartService) MergeOnLogin(sessionKey string, userID uint) error {
	if sessionKey == "" || userID == 0 {
		return nil
	}
	sessionCart, err := s.cartRepo.GetBySession(sessionKey)
	if err != nil {
		return err
	}
	if sessionCart == nil {
		return nil
	}
	sessionItems, err := s.cartRepo.ListItems(sessionCart.ID)
	if err != nil {
		return err
	}
	if len(sessionItems) == 0 {
		return s.cartRepo.Delete(sessionCart.ID)
	}

	userCart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}
	userItems, err := s.cartRepo.ListItems(userCart.ID)
	if err != nil {
		return err
	}
	quantities := make(map[uint]int, len(userItems))
	for _, item := range userItems {
		quantities[item.ProductID] = item.Quantity
	}

	for _, item := range sessionItems {
		quantity := item.Quantity
		if existing := quantities[item.ProductID]; existing > quantity {
			quantity = existing
		}
		if err := s.cartRepo.UpsertItem(&models.CartItem{
			CartID:    userCart.ID,
			ProductID: item.ProductID,
			Quantity:  quantity,
			UnitPrice: item.UnitPrice,
			Currency:  item.Currency,
			UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}
	return s.cartRepo.Delete(sessionCart.ID)
}

func productCurrency(product *models.Product) string {
	if product != nil && product.Currency != "" {
		return product.Currency
	}
	return constants.DefaultCurrency
}
