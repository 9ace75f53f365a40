package constants

// 订单状态常量
const (
	OrderStatusNew        = "new"
	OrderStatusProcessing = "processing"
	OrderStatusFulfilled  = "fulfilled"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Paystack 网关常量
const (
	PaystackChargeSuccess    = "success"
	PaystackEventChargeOK    = "charge.success"
	PaystackSignatureHeader  = "X-Paystack-Signature"
	PaystackReferencePrefix  = "POSH-"
	DefaultCurrency          = "NGN"
	CurrencySubunitPerNaira  = 100
)

// 商品库存状态常量
const (
	ProductStockStatusInStock    = "in_stock"
	ProductStockStatusLowStock   = "low_stock"
	ProductStockStatusOutOfStock = "out_of_stock"
)

// 低库存阈值
const (
	ProductLowStockThreshold = 5
)

// 商品图片上传限制
const (
	ProductImageMaxCount = 8
	ProductImageMaxBytes = 5 << 20
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 匿名会话 Cookie 常量
const (
	SessionCookieName   = "ps_session"
	SessionCookieMaxAge = 30 * 24 * 60 * 60
)

// 站点设置键常量
const (
	SettingKeySiteName         = "site_name"
	SettingKeySiteURL          = "site_url"
	SettingKeySupportEmail     = "support_email"
	SettingKeyCurrency         = "currency"
	SettingKeyOrderEmailOn     = "order_email_enabled"
	SettingKeyPaymentEmailOn   = "payment_email_enabled"
	SettingKeyWelcomeEmailOn   = "welcome_email_enabled"
	SettingKeyLowStockLevel    = "low_stock_threshold"
)

// 异步任务类型常量
const (
	TaskTypeOrderConfirmationEmail = "email:order_confirmation"
	TaskTypePaymentConfirmedEmail  = "email:payment_confirmed"
	TaskTypeWelcomeEmail           = "email:welcome"
	TaskTypePasswordResetEmail     = "email:password_reset"
)

// 异步任务队列常量
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
