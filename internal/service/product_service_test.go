package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

func setupProductTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.ProductImage{}, &models.PriceTier{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	return NewProductService(productRepo, categoryRepo), db
}

func TestCreateDerivesAndDeduplicatesSlug(t *testing.T) {
	svc, _ := setupProductTest(t)
	price := models.NewMoneyFromDecimal(decimal.RequireFromString("28000.00"))

	first, err := svc.Create(ProductInput{Name: "Royal Blue Ankara", Price: &price, Stock: 10})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.Slug != "royal-blue-ankara" {
		t.Fatalf("expected derived slug, got %q", first.Slug)
	}
	if first.SKU != "ROYAL-BLUE-ANKARA" {
		t.Fatalf("expected SKU derived from slug, got %q", first.SKU)
	}

	second, err := svc.Create(ProductInput{Name: "Royal Blue Ankara", Price: &price, Stock: 5})
	if err != nil {
		t.Fatalf("create duplicate name failed: %v", err)
	}
	if second.Slug != "royal-blue-ankara-2" {
		t.Fatalf("expected suffixed slug, got %q", second.Slug)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _ := setupProductTest(t)
	missing := uint(99)
	if _, err := svc.Create(ProductInput{Name: "Velvet", CategoryID: &missing}); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestReplaceTiersValidatesAndReplaces(t *testing.T) {
	svc, db := setupProductTest(t)
	price := models.NewMoneyFromDecimal(decimal.RequireFromString("65000.00"))
	product, err := svc.Create(ProductInput{Name: "Swiss Lace", Price: &price, Stock: 20})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	tierPrice := models.NewMoneyFromDecimal(decimal.RequireFromString("61000.00"))
	if _, err := svc.ReplaceTiers(product.ID, []PriceTierInput{
		{MinQuantity: 3, Price: tierPrice},
		{MinQuantity: 3, Price: tierPrice},
	}); err != ErrInvalidPriceTier {
		t.Fatalf("expected duplicate min_quantity rejected, got %v", err)
	}
	if _, err := svc.ReplaceTiers(product.ID, []PriceTierInput{{MinQuantity: 0, Price: tierPrice}}); err != ErrInvalidPriceTier {
		t.Fatalf("expected min_quantity < 1 rejected, got %v", err)
	}

	lower := models.NewMoneyFromDecimal(decimal.RequireFromString("58000.00"))
	tiers, err := svc.ReplaceTiers(product.ID, []PriceTierInput{
		{MinQuantity: 3, Price: tierPrice},
		{MinQuantity: 10, Price: lower},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}

	tiers, err = svc.ReplaceTiers(product.ID, []PriceTierInput{{MinQuantity: 5, Price: lower}})
	if err != nil {
		t.Fatalf("second replace failed: %v", err)
	}
	if len(tiers) != 1 || tiers[0].MinQuantity != 5 {
		t.Fatalf("expected old tiers replaced, got %+v", tiers)
	}

	var stored int64
	db.Model(&models.PriceTier{}).Where("product_id = ?", product.ID).Count(&stored)
	if stored != 1 {
		t.Fatalf("expected 1 stored tier, got %d", stored)
	}
}

func TestListOnlyActiveFiltersDrafts(t *testing.T) {
	svc, _ := setupProductTest(t)
	price := models.NewMoneyFromDecimal(decimal.RequireFromString("18500.00"))
	inactive := false
	if _, err := svc.Create(ProductInput{Name: "Gold Gele", Price: &price, Stock: 10}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ProductInput{Name: "Draft Gele", Price: &price, Stock: 10, IsActive: &inactive}); err != nil {
		t.Fatalf("create draft failed: %v", err)
	}

	products, total, err := svc.List(ProductListInput{OnlyActive: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(products) != 1 {
		t.Fatalf("expected only active product, got total=%d len=%d", total, len(products))
	}
	if products[0].Name != "Gold Gele" {
		t.Fatalf("unexpected product %q", products[0].Name)
	}

	products, total, err = svc.List(ProductListInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected both products for admin listing, got %d", total)
	}
	_ = products
}

func TestAddImageEnforcesLimit(t *testing.T) {
	svc, db := setupProductTest(t)
	price := models.NewMoneyFromDecimal(decimal.RequireFromString("12000.00"))
	product, err := svc.Create(ProductInput{Name: "Plain Gele", Price: &price, Stock: 10})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 8; i++ {
		if err := db.Create(&models.ProductImage{ProductID: product.ID, Path: "/uploads/products/x.jpg", SortOrder: i}).Error; err != nil {
			t.Fatalf("seed image failed: %v", err)
		}
	}
	if _, err := svc.AddImage(product.ID, "/uploads/products/y.jpg", "", 0, false); err != ErrImageLimitExceeded {
		t.Fatalf("expected ErrImageLimitExceeded, got %v", err)
	}
}
