package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/poshpearl/poshpearl/internal/models"
)

func money(value string) models.Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return models.NewMoneyFromDecimal(d)
}

func moneyPtr(value string) *models.Money {
	m := money(value)
	return &m
}

func TestResolveUnitPricePicksLowestTierRegardlessOfQuantity(t *testing.T) {
	svc := NewPricingService(nil)
	product := &models.Product{
		PriceTiers: []models.PriceTier{
			{MinQuantity: 50, Price: money("150000.00")},
			{MinQuantity: 10, Price: money("200000.00")},
		},
	}

	for _, quantity := range []int{1, 10, 49, 50, 500} {
		price, err := svc.ResolveUnitPrice(product, quantity)
		if err != nil {
			t.Fatalf("resolve price for quantity %d failed: %v", quantity, err)
		}
		if price.String() != "200000.00" {
			t.Fatalf("quantity %d: expected 200000.00, got %s", quantity, price.String())
		}
	}
}

func TestResolveUnitPriceFlatPriceWinsOverTiers(t *testing.T) {
	svc := NewPricingService(nil)
	product := &models.Product{
		Price: moneyPtr("500000.00"),
		PriceTiers: []models.PriceTier{
			{MinQuantity: 10, Price: money("200000.00")},
		},
	}

	price, err := svc.ResolveUnitPrice(product, 100)
	if err != nil {
		t.Fatalf("resolve price failed: %v", err)
	}
	if price.String() != "500000.00" {
		t.Fatalf("expected flat price 500000.00, got %s", price.String())
	}
}

func TestResolveUnitPriceFallsBackToBasePrice(t *testing.T) {
	svc := NewPricingService(nil)
	product := &models.Product{Price: moneyPtr("1250.50")}

	price, err := svc.ResolveUnitPrice(product, 3)
	if err != nil {
		t.Fatalf("resolve price failed: %v", err)
	}
	if price.String() != "1250.50" {
		t.Fatalf("expected 1250.50, got %s", price.String())
	}
}

func TestResolveUnitPriceUnavailable(t *testing.T) {
	svc := NewPricingService(nil)
	product := &models.Product{}

	_, err := svc.ResolveUnitPrice(product, 1)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestResolveUnitPriceNilProduct(t *testing.T) {
	svc := NewPricingService(nil)
	if _, err := svc.ResolveUnitPrice(nil, 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
