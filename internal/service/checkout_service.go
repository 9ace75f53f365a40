package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/payment/paystack"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// CheckoutInput 结账输入
type CheckoutInput struct {
	Identity CartIdentity
	UserID   *uint
	Email    string
	FullName string
	Phone    string
	Address  string
	City     string
	State    string
	ClientIP string
}

// PaymentInitResult 支付初始化结果
type PaymentInitResult struct {
	OrderNo          string `json:"order_no"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// ReconcileResult 支付核销结果
type ReconcileResult struct {
	Order     *models.Order `json:"order"`
	Paid      bool          `json:"paid"`
	Duplicate bool          `json:"duplicate"`
}

// CheckoutService 结账与支付核销服务
type CheckoutService struct {
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	cartService  *CartService
	gateway      *paystack.Client
	notification *NotificationService
	paystackCfg  config.PaystackConfig
	currency     string
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cartService *CartService,
	gateway *paystack.Client,
	notification *NotificationService,
	paystackCfg config.PaystackConfig,
	currency string,
) *CheckoutService {
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	return &CheckoutService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		cartService:  cartService,
		gateway:      gateway,
		notification: notification,
		paystackCfg:  paystackCfg,
		currency:     currency,
	}
}

// BeginCheckout 从购物车快照创建订单。
// 订单项固化当时的名称与单价，库存在同一事务内条件扣减；
// 购物车在支付核销成功前保持原样。
func (s *CheckoutService) BeginCheckout(input CheckoutInput) (*models.Order, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	summary, err := s.cartService.Summarize(input.Identity)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, ErrCartEmpty
	}

	currency := summary.Currency
	if currency == "" {
		currency = s.currency
	}
	order := &models.Order{
		OrderNo:       generateOrderNo(),
		UserID:        input.UserID,
		Email:         email,
		FullName:      strings.TrimSpace(input.FullName),
		Phone:         strings.TrimSpace(input.Phone),
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		Status:        constants.OrderStatusNew,
		PaymentStatus: constants.PaymentStatusPending,
		Currency:      currency,
		ClientIP:      strings.TrimSpace(input.ClientIP),
	}

	items := make([]models.OrderItem, 0, len(summary.Items))
	total := decimal.Zero
	for _, detail := range summary.Items {
		items = append(items, models.OrderItem{
			ProductID:   detail.ProductID,
			ProductName: detail.Product.Name,
			ProductSlug: detail.Product.Slug,
			UnitPrice:   detail.UnitPrice,
			Quantity:    detail.Quantity,
			TotalPrice:  detail.LineTotal,
		})
		total = total.Add(detail.LineTotal.Decimal)
	}
	order.Subtotal = models.NewMoneyFromDecimal(total)
	order.TotalAmount = order.Subtotal

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if order.UserID == nil {
			user, err := s.resolveCustomer(tx, email, order.FullName)
			if err != nil {
				return err
			}
			order.UserID = &user.ID
		}
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range items {
			rows, err := productRepo.DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrStockInsufficient
			}
		}
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		return nil, err
	}
	order.Items = items

	checkoutLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("checkout_order_created",
		"email", order.Email,
		"total_amount", order.TotalAmount.String(),
		"item_count", len(items),
	)
	return order, nil
}

// resolveCustomer 匿名结账时按邮箱复用既有账号，
// 不存在则用随机临时口令开户并签发重置令牌。
func (s *CheckoutService) resolveCustomer(tx *gorm.DB, email, fullName string) (*models.User, error) {
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	tempPassword, err := randomToken(16)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	token, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(resetTokenTTL)
	firstName, lastName := splitFullName(fullName)
	user = &models.User{
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         firstName,
		LastName:          lastName,
		AutoCreated:       true,
		ResetToken:        token,
		ResetTokenExpires: &expires,
	}
	if err := userRepo.Create(user); err != nil {
		return nil, err
	}
	checkoutLogger("user_id", user.ID).Infow("checkout_account_created", "email", email)
	return user, nil
}

func splitFullName(fullName string) (first, last string) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// InitializePayment 向网关初始化交易并记录收银台地址。
// 无显式引用时生成 POSH-{订单ID}-{随机后缀}，避免重试撞旧引用。
// 首次成功初始化后触发欢迎邮件（新开账号）或下单确认邮件。
func (s *CheckoutService) InitializePayment(ctx context.Context, orderID uint) (*PaymentInitResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentStatus == constants.PaymentStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		return nil, ErrOrderNotPayable
	}

	reference := strings.TrimSpace(order.PaymentReference)
	if reference == "" {
		reference = fmt.Sprintf("%s%d-%s", constants.PaystackReferencePrefix, order.ID, randNumeric(6))
	}

	result, err := s.gateway.Initialize(ctx, paystack.InitializeInput{
		Email:       order.Email,
		AmountMinor: order.TotalAmount.MinorUnits(),
		Currency:    order.Currency,
		Reference:   reference,
		CallbackURL: s.paystackCfg.CallbackURL,
	})
	if err != nil {
		checkoutLogger("order_id", order.ID, "order_no", order.OrderNo).Warnw("payment_initialize_failed", "error", err)
		if _, ferr := s.orderRepo.UpdatePaymentStatusIf(order.ID, constants.PaymentStatusPending, map[string]interface{}{
			"payment_status": constants.PaymentStatusFailed,
		}); ferr != nil {
			checkoutLogger("order_id", order.ID).Errorw("mark_order_failed_error", "error", ferr)
		}
		return nil, err
	}
	if result.Reference != "" {
		reference = result.Reference
	}

	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_reference": reference,
		"authorization_url": result.AuthorizationURL,
	}); err != nil {
		return nil, err
	}

	checkoutLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("payment_initialized",
		"reference", reference,
		"amount_minor", order.TotalAmount.MinorUnits(),
		"currency", order.Currency,
	)
	s.dispatchCheckoutEmail(order)
	return &PaymentInitResult{
		OrderNo:          order.OrderNo,
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
	}, nil
}

// dispatchCheckoutEmail 结账邮件二选一：本次下单自动开的新账号发欢迎邮件
// （随附重置口令入口），老客户发下单确认邮件。两类邮件各自只发一次。
func (s *CheckoutService) dispatchCheckoutEmail(order *models.Order) {
	if s.notification == nil {
		return
	}
	if order.UserID != nil {
		user, err := s.userRepo.GetByID(*order.UserID)
		if err != nil {
			checkoutLogger("order_id", order.ID).Warnw("checkout_email_user_lookup_failed", "error", err)
			return
		}
		if user != nil && user.AutoCreated && user.WelcomeSentAt == nil {
			s.notification.NotifyWelcome(user.ID)
			return
		}
	}
	s.notification.NotifyOrderConfirmation(order.ID)
}

// ReconcileCallback 处理浏览器回跳核销：主动向网关核验交易，
// 成功后清空该身份的购物车。未知引用返回用户可见错误。
func (s *CheckoutService) ReconcileCallback(ctx context.Context, reference string, identity CartIdentity) (*ReconcileResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrPaymentRefUnknown
	}
	order, err := s.orderRepo.GetByPaymentReference(reference)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrPaymentRefUnknown
	}

	verified, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	meta := models.JSON{
		"source":           "callback",
		"status":           verified.Status,
		"amount_minor":     verified.AmountMinor,
		"currency":         verified.Currency,
		"channel":          verified.Channel,
		"gateway_response": verified.GatewayResponse,
		"paid_at":          verified.PaidAt,
	}

	if verified.Status != paystack.ChargeSuccess {
		if err := s.markFailed(order, meta); err != nil {
			return nil, err
		}
		fresh, err := s.orderRepo.GetByID(order.ID)
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{Order: fresh, Paid: false}, nil
	}

	result, err := s.markPaid(order, meta, verified.AmountMinor, verified.Currency, verified.Channel)
	if err != nil {
		return nil, err
	}
	if result.Paid || result.Duplicate {
		if identity.Valid() {
			if err := s.cartService.Clear(identity); err != nil {
				checkoutLogger("order_id", order.ID).Warnw("cart_clear_after_payment_failed", "error", err)
			}
		}
	}
	return result, nil
}

// ReconcileWebhook 处理网关异步推送核销。
// 签名校验在 HTTP 层完成；未知引用静默确认，不触碰任何购物车。
func (s *CheckoutService) ReconcileWebhook(ctx context.Context, event *paystack.WebhookEvent) (*ReconcileResult, error) {
	if event == nil || event.Event != constants.PaystackEventChargeOK {
		return &ReconcileResult{}, nil
	}
	order, err := s.orderRepo.GetByPaymentReference(strings.TrimSpace(event.Data.Reference))
	if err != nil {
		return nil, err
	}
	if order == nil {
		checkoutLogger("reference", event.Data.Reference).Infow("webhook_unknown_reference_acked")
		return &ReconcileResult{}, nil
	}

	meta := models.JSON{
		"source":           "webhook",
		"status":           event.Data.Status,
		"amount_minor":     event.Data.Amount,
		"currency":         event.Data.Currency,
		"channel":          event.Data.Channel,
		"gateway_response": event.Data.GatewayResponse,
		"paid_at":          event.Data.PaidAt,
	}
	// 事件名与载荷状态可能不一致，以载荷为准
	if event.Data.Status != paystack.ChargeSuccess {
		if err := s.markFailed(order, meta); err != nil {
			return nil, err
		}
		fresh, err := s.orderRepo.GetByID(order.ID)
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{Order: fresh, Paid: false}, nil
	}
	return s.markPaid(order, meta, event.Data.Amount, event.Data.Currency, event.Data.Channel)
}

// markPaid 把订单置为已支付，金额与币种以网关回报为准。
// 仅 pending -> paid 的条件更新会生效；已支付订单只补记网关元数据，
// 竞争中输掉的一方拿到 0 行并按重复成功处理。
func (s *CheckoutService) markPaid(order *models.Order, meta models.JSON, amountMinor int64, currency, channel string) (*ReconcileResult, error) {
	log := checkoutLogger("order_id", order.ID, "order_no", order.OrderNo, "source", meta["source"])

	if order.PaymentStatus == constants.PaymentStatusPaid {
		log.Infow("reconcile_idempotent_already_paid")
		if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{"gateway_meta_json": meta}); err != nil {
			return nil, err
		}
		fresh, err := s.orderRepo.GetByID(order.ID)
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{Order: fresh, Duplicate: true}, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status":    constants.PaymentStatusPaid,
		"status":            constants.OrderStatusProcessing,
		"paid_at":           now,
		"gateway_meta_json": meta,
	}
	if amountMinor > 0 {
		updates["total_amount"] = models.NewMoneyFromMinor(amountMinor)
	}
	if currency = strings.TrimSpace(currency); currency != "" {
		updates["currency"] = strings.ToUpper(currency)
	}
	if channel = strings.TrimSpace(channel); channel != "" && order.PaymentMethod == "" {
		updates["payment_method"] = channel
	}
	rows, err := s.orderRepo.UpdatePaymentStatusIf(order.ID, constants.PaymentStatusPending, updates)
	if err != nil {
		return nil, err
	}

	fresh, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// 另一条到达路径先完成了核销
		log.Infow("reconcile_lost_race_noop", "current_status", fresh.PaymentStatus)
		return &ReconcileResult{Order: fresh, Duplicate: fresh.PaymentStatus == constants.PaymentStatusPaid}, nil
	}

	log.Infow("reconcile_order_paid", "paid_at", now)
	if s.notification != nil {
		s.notification.NotifyPaymentConfirmed(order.ID)
	}
	return &ReconcileResult{Order: fresh, Paid: true}, nil
}

// markFailed 记录失败结果，已支付订单不会被回退
func (s *CheckoutService) markFailed(order *models.Order, meta models.JSON) error {
	if order.PaymentStatus == constants.PaymentStatusPaid {
		checkoutLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("reconcile_failed_after_paid_ignored")
		return s.orderRepo.UpdateFields(order.ID, map[string]interface{}{"gateway_meta_json": meta})
	}
	rows, err := s.orderRepo.UpdatePaymentStatusIf(order.ID, constants.PaymentStatusPending, map[string]interface{}{
		"payment_status":    constants.PaymentStatusFailed,
		"gateway_meta_json": meta,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		checkoutLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("reconcile_failed_lost_race_noop")
	}
	return nil
}

func checkoutLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PP%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String()
}
