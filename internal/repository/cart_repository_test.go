package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/models"
)

func setupCartRepoTest(t *testing.T) (*GormCartRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewCartRepository(db), db
}

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm sentinel", gorm.ErrDuplicatedKey, true},
		{"sqlite message", errors.New("UNIQUE constraint failed: cart_items.cart_id, cart_items.product_id (2067)"), true},
		{"postgres message", errors.New(`duplicate key value violates unique constraint "idx_cart_product"`), true},
		{"mysql message", errors.New("Error 1062: Duplicate entry '1-2' for key 'idx_cart_product'"), true},
		{"unrelated", errors.New("no such table: cart_items"), false},
	}
	for _, tc := range cases {
		if got := isDuplicateKeyErr(tc.err); got != tc.want {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestUpsertItemCreatesThenUpdates(t *testing.T) {
	repo, db := setupCartRepoTest(t)
	sessionKey := "sess-upsert"
	cart, err := repo.GetOrCreateBySession(sessionKey)
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	first := &models.CartItem{CartID: cart.ID, ProductID: 7, Quantity: 2, Currency: "NGN", UpdatedAt: time.Now()}
	if err := repo.UpsertItem(first); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	second := &models.CartItem{CartID: cart.ID, ProductID: 7, Quantity: 5, Currency: "NGN", UpdatedAt: time.Now()}
	if err := repo.UpsertItem(second); err != nil {
		t.Fatalf("upsert over existing line failed: %v", err)
	}

	var rows int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single line after upsert, got %d", rows)
	}
	item, err := repo.GetItem(cart.ID, 7)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item == nil || item.Quantity != 5 {
		t.Fatalf("expected quantity 5 after upsert, got %+v", item)
	}
}
