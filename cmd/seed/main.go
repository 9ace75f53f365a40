package main

import (
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	// 分类
	categories := []models.Category{
		{Slug: "ankara", Name: "Ankara Fabrics", Description: "Premium wax print fabrics sold per bundle.", SortOrder: 1},
		{Slug: "lace", Name: "Lace", Description: "Swiss voile and cord lace.", SortOrder: 2},
		{Slug: "headgear", Name: "Headgear", Description: "Aso-oke and plain gele.", SortOrder: 3},
	}
	for i := range categories {
		if err := models.DB.Where("slug = ?", categories[i].Slug).FirstOrCreate(&categories[i]).Error; err != nil {
			stdLog.Fatalf("failed to seed category %s: %v", categories[i].Slug, err)
		}
	}

	// 商品与阶梯价
	products := []struct {
		product models.Product
		tiers   []models.PriceTier
	}{
		{
			product: models.Product{
				CategoryID:  &categories[0].ID,
				Slug:        "royal-blue-ankara-6yd",
				SKU:         "ANK-RB-6YD",
				Name:        "Royal Blue Ankara (6 Yards)",
				Description: "100% cotton wax print, royal blue with gold accents.",
				Price:       moneyPtr("28000"),
				Stock:       40,
				IsActive:    true,
				SortOrder:   1,
			},
			tiers: []models.PriceTier{
				{MinQuantity: 5, Price: money("26500")},
				{MinQuantity: 10, Price: money("25000")},
			},
		},
		{
			product: models.Product{
				CategoryID:  &categories[1].ID,
				Slug:        "swiss-voile-lace-white",
				SKU:         "LACE-SV-WHT",
				Name:        "Swiss Voile Lace (White)",
				Description: "Embroidered Swiss voile lace, 5 yards per bundle.",
				Price:       moneyPtr("65000"),
				Stock:       15,
				IsActive:    true,
				SortOrder:   2,
			},
			tiers: []models.PriceTier{
				{MinQuantity: 3, Price: money("61000")},
			},
		},
		{
			product: models.Product{
				CategoryID:  &categories[2].ID,
				Slug:        "aso-oke-gele-gold",
				SKU:         "GELE-AO-GLD",
				Name:        "Aso-Oke Gele (Gold)",
				Description: "Handwoven aso-oke headtie, gold.",
				Price:       moneyPtr("18500"),
				Stock:       25,
				IsActive:    true,
				SortOrder:   3,
			},
		},
	}
	for _, entry := range products {
		p := entry.product
		if err := models.DB.Where("slug = ?", p.Slug).FirstOrCreate(&p).Error; err != nil {
			stdLog.Fatalf("failed to seed product %s: %v", p.Slug, err)
		}
		for _, tier := range entry.tiers {
			tier.ProductID = p.ID
			if err := models.DB.Where("product_id = ? AND min_quantity = ?", p.ID, tier.MinQuantity).
				FirstOrCreate(&tier).Error; err != nil {
				stdLog.Fatalf("failed to seed price tier for %s: %v", p.Slug, err)
			}
		}
	}

	// 站点设置
	settings := []models.Setting{
		{Key: constants.SettingKeySiteName, ValueJSON: models.JSON{"value": "PoshPearl"}},
		{Key: constants.SettingKeySiteURL, ValueJSON: models.JSON{"value": "https://poshpearl.ng"}},
		{Key: constants.SettingKeySupportEmail, ValueJSON: models.JSON{"value": "hello@poshpearl.ng"}},
		{Key: constants.SettingKeyCurrency, ValueJSON: models.JSON{"value": "NGN"}},
		{Key: constants.SettingKeyOrderEmailOn, ValueJSON: models.JSON{"value": true}},
		{Key: constants.SettingKeyPaymentEmailOn, ValueJSON: models.JSON{"value": true}},
		{Key: constants.SettingKeyWelcomeEmailOn, ValueJSON: models.JSON{"value": false}},
		{Key: constants.SettingKeyLowStockLevel, ValueJSON: models.JSON{"value": constants.ProductLowStockThreshold}},
	}
	for _, setting := range settings {
		s := setting
		if err := models.DB.Where("key = ?", s.Key).FirstOrCreate(&s).Error; err != nil {
			stdLog.Fatalf("failed to seed setting %s: %v", s.Key, err)
		}
	}

	stdLog.Printf("seed completed: %d categories, %d products, %d settings", len(categories), len(products), len(settings))
}

func money(amount string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(amount))
}

func moneyPtr(amount string) *models.Money {
	m := money(amount)
	return &m
}
