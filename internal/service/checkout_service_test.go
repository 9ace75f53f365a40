package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/payment/paystack"
	"github.com/poshpearl/poshpearl/internal/repository"
)

func setupCheckoutTest(t *testing.T, gateway *paystack.Client) (*CheckoutService, *CartService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.ProductImage{}, &models.PriceTier{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.User{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	pricing := NewPricingService(productRepo)
	cartService := NewCartService(cartRepo, productRepo, pricing)
	checkout := NewCheckoutService(orderRepo, cartRepo, productRepo, userRepo, cartService, gateway, nil, config.PaystackConfig{}, "NGN")
	return checkout, cartService, db
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, slug string, price string, stock int) *models.Product {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	money := models.NewMoneyFromDecimal(amount)
	product := &models.Product{
		Name:     "Pearl Set " + slug,
		Slug:     slug,
		SKU:      strings.ToUpper(slug),
		Price:    &money,
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func seedPendingOrder(t *testing.T, db *gorm.DB, reference string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:          generateOrderNo(),
		Email:            "ada@example.com",
		FullName:         "Ada Obi",
		Status:           constants.OrderStatusNew,
		PaymentStatus:    constants.PaymentStatusPending,
		Currency:         "NGN",
		TotalAmount:      models.NewMoneyFromDecimal(decimal.NewFromInt(280000)),
		PaymentReference: reference,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestBeginCheckoutSnapshotsCartAndKeepsCart(t *testing.T) {
	checkout, cartService, db := setupCheckoutTest(t, nil)
	product := seedCheckoutProduct(t, db, "oyster-strand", "280000.00", 10)

	identity := CartIdentity{SessionKey: "sess-begin"}
	if err := cartService.AddItem(identity, product.ID, 2); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}

	order, err := checkout.BeginCheckout(CheckoutInput{
		Identity: identity,
		Email:    "Ada@Example.com",
		FullName: "Ada Obi",
		Address:  "12 Marina Road",
		City:     "Lagos",
		State:    "Lagos",
	})
	if err != nil {
		t.Fatalf("begin checkout failed: %v", err)
	}
	if order.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %s", order.Email)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductName != product.Name || item.ProductSlug != product.Slug {
		t.Fatalf("order item did not snapshot product fields: %+v", item)
	}
	if got := order.TotalAmount.StringFixed(2); got != "560000.00" {
		t.Fatalf("expected total 560000.00, got %s", got)
	}
	if got := order.Subtotal.StringFixed(2); got != "560000.00" {
		t.Fatalf("expected subtotal 560000.00, got %s", got)
	}
	if order.UserID == nil {
		t.Fatal("anonymous checkout should attach an account")
	}
	var user models.User
	if err := db.First(&user, *order.UserID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !user.AutoCreated || user.ResetToken == "" || user.ResetTokenExpires == nil {
		t.Fatalf("auto-created account missing reset token: %+v", user)
	}
	if order.PaymentStatus != constants.PaymentStatusPending || order.Status != constants.OrderStatusNew {
		t.Fatalf("unexpected initial statuses: %s/%s", order.Status, order.PaymentStatus)
	}

	var fresh models.Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if fresh.Stock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", fresh.Stock)
	}

	summary, err := cartService.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("cart should survive checkout until payment, got %d items", len(summary.Items))
	}
}

func TestBeginCheckoutInsufficientStockRollsBack(t *testing.T) {
	checkout, cartService, db := setupCheckoutTest(t, nil)
	product := seedCheckoutProduct(t, db, "coral-drop", "150000.00", 1)

	identity := CartIdentity{SessionKey: "sess-stock"}
	if err := cartService.AddItem(identity, product.ID, 1); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", 0).Error; err != nil {
		t.Fatalf("deplete stock failed: %v", err)
	}

	_, err := checkout.BeginCheckout(CheckoutInput{Identity: identity, Email: "ada@example.com", FullName: "Ada Obi"})
	if err != ErrStockInsufficient {
		t.Fatalf("expected ErrStockInsufficient, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no orders, got %d", count)
	}
}

func TestBeginCheckoutEmptyCart(t *testing.T) {
	checkout, _, _ := setupCheckoutTest(t, nil)
	_, err := checkout.BeginCheckout(CheckoutInput{Identity: CartIdentity{SessionKey: "sess-empty"}, Email: "ada@example.com"})
	if err != ErrCartEmpty {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestReconcileWebhookMarksPaidOnce(t *testing.T) {
	checkout, _, db := setupCheckoutTest(t, nil)
	order := seedPendingOrder(t, db, "POSH-1001")

	event := &paystack.WebhookEvent{Event: constants.PaystackEventChargeOK}
	event.Data.Reference = "POSH-1001"
	event.Data.Status = paystack.ChargeSuccess
	event.Data.Amount = 28000000
	event.Data.Currency = "NGN"
	event.Data.Channel = "card"

	first, err := checkout.ReconcileWebhook(context.Background(), event)
	if err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	if !first.Paid || first.Duplicate {
		t.Fatalf("first webhook should win: %+v", first)
	}
	if first.Order.PaymentStatus != constants.PaymentStatusPaid || first.Order.Status != constants.OrderStatusProcessing {
		t.Fatalf("unexpected statuses after webhook: %s/%s", first.Order.Status, first.Order.PaymentStatus)
	}
	if first.Order.PaidAt == nil {
		t.Fatal("paid_at should be set")
	}

	second, err := checkout.ReconcileWebhook(context.Background(), event)
	if err != nil {
		t.Fatalf("second webhook failed: %v", err)
	}
	if second.Paid || !second.Duplicate {
		t.Fatalf("second webhook should be an idempotent no-op: %+v", second)
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("paid order must stay paid, got %s", fresh.PaymentStatus)
	}
	if got := fresh.TotalAmount.MinorUnits(); got != 28000000 {
		t.Fatalf("order amount should follow the gateway report, got %d", got)
	}
	if fresh.PaymentMethod != "card" {
		t.Fatalf("payment method should be backfilled from the gateway channel, got %q", fresh.PaymentMethod)
	}
}

func TestReconcileWebhookUnknownReferenceAcked(t *testing.T) {
	checkout, _, _ := setupCheckoutTest(t, nil)
	event := &paystack.WebhookEvent{Event: constants.PaystackEventChargeOK}
	event.Data.Reference = "POSH-does-not-exist"
	event.Data.Status = paystack.ChargeSuccess

	result, err := checkout.ReconcileWebhook(context.Background(), event)
	if err != nil {
		t.Fatalf("unknown reference should ack silently, got %v", err)
	}
	if result.Paid || result.Duplicate || result.Order != nil {
		t.Fatalf("unexpected result for unknown reference: %+v", result)
	}
}

func TestReconcileWebhookIgnoresOtherEvents(t *testing.T) {
	checkout, _, db := setupCheckoutTest(t, nil)
	order := seedPendingOrder(t, db, "POSH-2001")

	event := &paystack.WebhookEvent{Event: "transfer.success"}
	event.Data.Reference = "POSH-2001"
	if _, err := checkout.ReconcileWebhook(context.Background(), event); err != nil {
		t.Fatalf("ignored event errored: %v", err)
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("non charge.success event must not change the order, got %s", fresh.PaymentStatus)
	}
}

func TestReconcileWebhookFailedStatusMarksFailed(t *testing.T) {
	checkout, _, db := setupCheckoutTest(t, nil)
	order := seedPendingOrder(t, db, "POSH-3001")

	// 事件名是 charge.success 但载荷状态是 failed，以载荷为准
	event := &paystack.WebhookEvent{Event: constants.PaystackEventChargeOK}
	event.Data.Reference = "POSH-3001"
	event.Data.Status = "failed"

	result, err := checkout.ReconcileWebhook(context.Background(), event)
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if result.Paid {
		t.Fatalf("failed payload status must not mark the order paid: %+v", result)
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.PaymentStatus != constants.PaymentStatusFailed {
		t.Fatalf("expected payment status failed, got %s", fresh.PaymentStatus)
	}
	if fresh.PaidAt != nil {
		t.Fatal("paid_at must stay empty on a failed charge")
	}
}

func newVerifyGateway(t *testing.T, status string) *paystack.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"` + status + `","reference":"POSH-3001","amount":28000000,"currency":"NGN","channel":"card","gateway_response":"Approved"}}`))
	}))
	t.Cleanup(server.Close)
	client, err := paystack.NewClient(paystack.Config{BaseURL: server.URL, SecretKey: "sk_test_x"})
	if err != nil {
		t.Fatalf("new paystack client failed: %v", err)
	}
	return client
}

func TestReconcileCallbackClearsCartOnSuccess(t *testing.T) {
	gateway := newVerifyGateway(t, paystack.ChargeSuccess)
	checkout, cartService, db := setupCheckoutTest(t, gateway)
	seedPendingOrder(t, db, "POSH-3001")

	product := seedCheckoutProduct(t, db, "amber-clasp", "90000.00", 5)
	identity := CartIdentity{SessionKey: "sess-callback"}
	if err := cartService.AddItem(identity, product.ID, 1); err != nil {
		t.Fatalf("add cart item failed: %v", err)
	}

	result, err := checkout.ReconcileCallback(context.Background(), "POSH-3001", identity)
	if err != nil {
		t.Fatalf("callback reconcile failed: %v", err)
	}
	if !result.Paid {
		t.Fatalf("expected Paid, got %+v", result)
	}

	summary, err := cartService.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("cart should be cleared after successful callback, got %d items", len(summary.Items))
	}
}

func TestReconcileCallbackUnknownReference(t *testing.T) {
	checkout, _, _ := setupCheckoutTest(t, nil)
	_, err := checkout.ReconcileCallback(context.Background(), "POSH-missing", CartIdentity{})
	if err != ErrPaymentRefUnknown {
		t.Fatalf("expected ErrPaymentRefUnknown, got %v", err)
	}
}

func TestReconcileCallbackFailedDoesNotDowngradePaidOrder(t *testing.T) {
	gateway := newVerifyGateway(t, paystack.ChargeFailed)
	checkout, _, db := setupCheckoutTest(t, gateway)
	order := seedPendingOrder(t, db, "POSH-3001")
	now := order.CreatedAt
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"status":         constants.OrderStatusProcessing,
		"paid_at":        now,
	}).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	result, err := checkout.ReconcileCallback(context.Background(), "POSH-3001", CartIdentity{})
	if err != nil {
		t.Fatalf("callback reconcile failed: %v", err)
	}
	if result.Paid {
		t.Fatalf("failed verification must not report paid transition: %+v", result)
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("paid order was downgraded to %s", fresh.PaymentStatus)
	}
}
