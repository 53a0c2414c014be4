package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
)

// Fixture helpers build valid domain objects for tests. Override fields
// on the returned value where a test needs specifics.

// NewProduct returns a product with one batch holding the given stock.
func NewProduct(name, plu, unit string, stock string) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		PLU:         plu,
		Unit:        unit,
		LastUpdated: now,
		Batches: []domain.Batch{
			{
				ID:           uuid.New().String(),
				PLU:          plu,
				PriceNoVAT:   decimal.RequireFromString("1.00"),
				CurrentStock: decimal.RequireFromString(stock),
				DateAdded:    now,
			},
		},
	}
}

// NewStockTakeLog returns a stock-take log for the product with the given
// recorded consumption, dated daysAgo days before now.
func NewStockTakeLog(p *domain.Product, consumption string, daysAgo int, now time.Time) *domain.InventoryLog {
	c := decimal.RequireFromString(consumption)
	prev := decimal.RequireFromString("10")
	actual := prev.Sub(c)
	return &domain.InventoryLog{
		ID:                    uuid.New().String(),
		ProductID:             p.ID,
		ProductName:           p.Name,
		BatchID:               p.Batches[0].ID,
		Type:                  domain.TransactionStockTake,
		Date:                  now.AddDate(0, 0, -daysAgo),
		PreviousStock:         &prev,
		ActualCount:           &actual,
		CalculatedConsumption: &c,
	}
}
