package service

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

func setupCartTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductImage{}, &models.PriceTier{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	pricing := NewPricingService(productRepo)
	return NewCartService(cartRepo, productRepo, pricing), db
}

func seedCartProduct(t *testing.T, db *gorm.DB, slug, price string, stock int) *models.Product {
	t.Helper()
	amount := models.NewMoneyFromDecimal(decimal.RequireFromString(price))
	product := &models.Product{
		Name:     "Fabric " + slug,
		Slug:     slug,
		SKU:      strings.ToUpper(slug),
		Price:    &amount,
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "blue-ankara", "28000.00", 5)
	identity := CartIdentity{SessionKey: "sess-1"}

	if err := svc.AddItem(identity, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.AddItem(identity, product.ID, 3); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(summary.Items))
	}
	if summary.Items[0].Quantity != 5 {
		t.Fatalf("expected quantities to accumulate to 5, got %d", summary.Items[0].Quantity)
	}
}

func TestAddItemAfterRemoveReusesLine(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "purple-aso-oke", "42000.00", 8)
	identity := CartIdentity{SessionKey: "sess-9"}

	if err := svc.AddItem(identity, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.RemoveItem(identity, product.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	// 删除后重加不能被唯一索引挡住
	if err := svc.AddItem(identity, product.ID, 1); err != nil {
		t.Fatalf("re-add after remove failed: %v", err)
	}

	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].Quantity != 1 {
		t.Fatalf("expected one fresh line with quantity 1, got %+v", summary.Items)
	}

	var rows int64
	if err := db.Unscoped().Model(&models.CartItem{}).Where("product_id = ?", product.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected removed line to be gone from the table, got %d rows", rows)
	}
}

func TestAddItemRejectsInvalidQuantityAndInactive(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "gold-gele", "18500.00", 10)
	identity := CartIdentity{SessionKey: "sess-2"}

	if err := svc.AddItem(identity, product.ID, 0); err != ErrInvalidCartItem {
		t.Fatalf("expected ErrInvalidCartItem for zero quantity, got %v", err)
	}
	if err := svc.AddItem(identity, product.ID, -3); err != ErrInvalidCartItem {
		t.Fatalf("expected ErrInvalidCartItem for negative quantity, got %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	if err := svc.AddItem(identity, product.ID, 1); err != ErrProductNotAvailable {
		t.Fatalf("expected ErrProductNotAvailable, got %v", err)
	}
	if err := svc.AddItem(identity, product.ID+99, 1); err != ErrProductNotAvailable {
		t.Fatalf("expected ErrProductNotAvailable for unknown product, got %v", err)
	}
}

func TestAddItemRefreshesCapturedPrice(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "swiss-lace", "65000.00", 20)
	identity := CartIdentity{SessionKey: "sess-3"}

	if err := svc.AddItem(identity, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", "70000.00").Error; err != nil {
		t.Fatalf("reprice product failed: %v", err)
	}
	if err := svc.AddItem(identity, product.ID, 1); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if got := summary.Items[0].UnitPrice.Decimal.StringFixed(2); got != "70000.00" {
		t.Fatalf("expected re-add to refresh captured price, got %s", got)
	}
}

func TestSummarizeUsesCapturedPrice(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "ivory-lace", "52000.00", 50)
	identity := CartIdentity{SessionKey: "sess-4"}

	if err := svc.AddItem(identity, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	// 改价后不重加：摘要仍按入车时捕获的单价计算
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", "99000.00").Error; err != nil {
		t.Fatalf("reprice product failed: %v", err)
	}

	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if got := summary.Items[0].UnitPrice.Decimal.StringFixed(2); got != "52000.00" {
		t.Fatalf("expected captured price 52000.00, got %s", got)
	}
	if got := summary.Subtotal.Decimal.StringFixed(2); got != "104000.00" {
		t.Fatalf("expected subtotal 104000.00, got %s", got)
	}
}

func TestSummarizeDropsInactiveAndRepricesUnpricedLines(t *testing.T) {
	svc, db := setupCartTest(t)
	kept := seedCartProduct(t, db, "plain-gele", "12000.00", 20)
	gone := seedCartProduct(t, db, "velvet", "40000.00", 20)
	identity := CartIdentity{SessionKey: "sess-5"}

	if err := svc.AddItem(identity, kept.ID, 3); err != nil {
		t.Fatalf("add kept failed: %v", err)
	}
	if err := svc.AddItem(identity, gone.ID, 1); err != nil {
		t.Fatalf("add gone failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	// 把存量行的捕获价清零，模拟旧数据，摘要时应按当前价自愈
	if err := db.Model(&models.CartItem{}).Where("product_id = ?", kept.ID).
		Update("unit_price", "0").Error; err != nil {
		t.Fatalf("zero captured price failed: %v", err)
	}

	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("expected inactive line dropped, got %d items", len(summary.Items))
	}
	if got := summary.Items[0].UnitPrice.Decimal.StringFixed(2); got != "12000.00" {
		t.Fatalf("expected healed price 12000.00, got %s", got)
	}
	if summary.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", summary.ItemCount)
	}

	var lines int64
	db.Model(&models.CartItem{}).Where("cart_id = ?", summary.CartID).Count(&lines)
	if lines != 1 {
		t.Fatalf("expected stale line removed from storage, found %d", lines)
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc, db := setupCartTest(t)
	product := seedCartProduct(t, db, "coral-ankara", "30000.00", 20)
	identity := CartIdentity{SessionKey: "sess-6"}

	if err := svc.SetItemQuantity(identity, product.ID, 2); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound before add, got %v", err)
	}

	if err := svc.AddItem(identity, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.SetItemQuantity(identity, product.ID, 7); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	summary, err := svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary.Items[0].Quantity != 7 {
		t.Fatalf("expected quantity replaced with 7, got %d", summary.Items[0].Quantity)
	}

	if err := svc.SetItemQuantity(identity, product.ID, 0); err != nil {
		t.Fatalf("zero quantity should remove the line: %v", err)
	}
	summary, err = svc.Summarize(identity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(summary.Items))
	}
}

func TestMergeOnLoginKeepsLargerQuantity(t *testing.T) {
	svc, db := setupCartTest(t)
	shared := seedCartProduct(t, db, "indigo-lace", "52000.00", 50)
	sessionOnly := seedCartProduct(t, db, "aso-oke", "12000.00", 50)

	sessionIdentity := CartIdentity{SessionKey: "sess-merge"}
	userIdentity := CartIdentity{UserID: 7}

	if err := svc.AddItem(sessionIdentity, shared.ID, 5); err != nil {
		t.Fatalf("seed session cart failed: %v", err)
	}
	if err := svc.AddItem(sessionIdentity, sessionOnly.ID, 2); err != nil {
		t.Fatalf("seed session cart failed: %v", err)
	}
	if err := svc.AddItem(userIdentity, shared.ID, 8); err != nil {
		t.Fatalf("seed user cart failed: %v", err)
	}

	if err := svc.MergeOnLogin("sess-merge", 7); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	summary, err := svc.Summarize(userIdentity)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	got := make(map[uint]int, len(summary.Items))
	for _, item := range summary.Items {
		got[item.ProductID] = item.Quantity
	}
	if got[shared.ID] != 8 {
		t.Fatalf("expected conflicting line to keep quantity 8, got %d", got[shared.ID])
	}
	if got[sessionOnly.ID] != 2 {
		t.Fatalf("expected session-only line carried over, got %d", got[sessionOnly.ID])
	}

	var sessionCarts int64
	db.Model(&models.Cart{}).Where("session_key = ?", "sess-merge").Count(&sessionCarts)
	if sessionCarts != 0 {
		t.Fatalf("expected session cart deleted after merge, found %d", sessionCarts)
	}
}

func TestMergeOnLoginNoSessionCartIsNoop(t *testing.T) {
	svc, _ := setupCartTest(t)
	if err := svc.MergeOnLogin("missing-session", 3); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}
