package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	return NewOrderService(repository.NewOrderRepository(db), repository.NewProductRepository(db)), db
}

func seedOrderWithItem(t *testing.T, db *gorm.DB, status, paymentStatus string) (*models.Order, *models.Product) {
	t.Helper()
	price := models.NewMoneyFromDecimal(decimal.NewFromInt(90000))
	product := &models.Product{Name: "Baroque Choker", Slug: "baroque-choker", SKU: "BAROQUE-CHOKER", Price: &price, Stock: 3, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	order := &models.Order{
		OrderNo:       generateOrderNo(),
		Email:         "ada@example.com",
		Status:        status,
		PaymentStatus: paymentStatus,
		Currency:      "NGN",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(180000)),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, ProductName: product.Name, ProductSlug: product.Slug, UnitPrice: price, Quantity: 2, TotalPrice: order.TotalAmount}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	return order, product
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order, _ := seedOrderWithItem(t, db, constants.OrderStatusNew, constants.PaymentStatusPaid)

	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("new -> processing failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusDelivered); err != ErrInvalidOrderStatus {
		t.Fatalf("processing -> delivered should be rejected, got %v", err)
	}
}

func TestCancelUnpaidOrderRestoresStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order, product := seedOrderWithItem(t, db, constants.OrderStatusNew, constants.PaymentStatusPending)

	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.CanceledAt == nil {
		t.Fatal("canceled_at should be set")
	}

	var fresh models.Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if fresh.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", fresh.Stock)
	}
}

func TestCancelPaidOrderKeepsStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order, product := seedOrderWithItem(t, db, constants.OrderStatusNew, constants.PaymentStatusPaid)

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	var fresh models.Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if fresh.Stock != 3 {
		t.Fatalf("paid order cancel must not restock, got %d", fresh.Stock)
	}
}

func TestUpdatePaymentStatusNeverDowngradesPaid(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order, _ := seedOrderWithItem(t, db, constants.OrderStatusProcessing, constants.PaymentStatusPaid)

	if _, err := svc.UpdatePaymentStatus(order.ID, constants.PaymentStatusFailed); err != ErrInvalidOrderStatus {
		t.Fatalf("paid -> failed should be rejected, got %v", err)
	}
	updated, err := svc.UpdatePaymentStatus(order.ID, constants.PaymentStatusRefunded)
	if err != nil {
		t.Fatalf("paid -> refunded failed: %v", err)
	}
	if updated.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", updated.PaymentStatus)
	}
}

func TestGetByOrderNoForEmail(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order, _ := seedOrderWithItem(t, db, constants.OrderStatusNew, constants.PaymentStatusPending)

	found, err := svc.GetByOrderNoForEmail(order.OrderNo, "ADA@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found.ID != order.ID {
		t.Fatalf("expected order %d, got %d", order.ID, found.ID)
	}
	if _, err := svc.GetByOrderNoForEmail(order.OrderNo, "other@example.com"); err != ErrOrderNotFound {
		t.Fatalf("wrong email should not see the order, got %v", err)
	}
}
