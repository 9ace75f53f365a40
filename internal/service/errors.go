package service

import "errors"

var (
	// 商品与分类
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrProductSlugTaken    = errors.New("product slug already taken")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugTaken   = errors.New("category slug already taken")
	ErrPriceUnavailable    = errors.New("product has no resolvable price")
	ErrInvalidPriceTier    = errors.New("invalid price tier")
	ErrImageLimitExceeded  = errors.New("image limit exceeded")
	ErrImageInvalid        = errors.New("image invalid")

	// 购物车
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartNotFound      = errors.New("cart not found")
	ErrInvalidCartItem   = errors.New("invalid cart item")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrStockInsufficient = errors.New("insufficient stock")

	// 订单与支付
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotPayable     = errors.New("order is not payable")
	ErrOrderAlreadyPaid    = errors.New("order already paid")
	ErrPaymentRefUnknown   = errors.New("payment reference unknown")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed by gateway")
	ErrInvalidOrderStatus  = errors.New("invalid order status")

	// 心愿单
	ErrWishlistItemNotFound = errors.New("wishlist item not found")

	// 用户与鉴权
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrNotStaff           = errors.New("staff privileges required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")

	// 邮件
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailSendFailed           = errors.New("email send failed")
)
