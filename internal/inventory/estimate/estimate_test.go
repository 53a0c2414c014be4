package estimate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func stockTake(productID string, daysAgo int, consumption string, now time.Time) *domain.InventoryLog {
	return &domain.InventoryLog{
		ID:                    "log-" + consumption,
		ProductID:             productID,
		Type:                  domain.TransactionStockTake,
		Date:                  now.AddDate(0, 0, -daysAgo),
		CalculatedConsumption: decPtr(consumption),
	}
}

func TestTotalStock(t *testing.T) {
	p := &domain.Product{
		ID: "p1",
		Batches: []domain.Batch{
			{ID: "b1", CurrentStock: dec("2.5")},
			{ID: "b2", CurrentStock: dec("7.5")},
		},
	}
	assert.True(t, dec("10").Equal(TotalStock(p)))

	empty := &domain.Product{ID: "p2"}
	assert.True(t, TotalStock(empty).IsZero())
}

func TestTotalValue(t *testing.T) {
	p := &domain.Product{
		ID: "p1",
		Batches: []domain.Batch{
			{ID: "b1", CurrentStock: dec("4"), PriceNoVAT: dec("1.50")},
			{ID: "b2", CurrentStock: dec("2"), PriceNoVAT: dec("3.25")},
		},
	}
	assert.True(t, dec("12.5").Equal(TotalValue(p)))
}

func TestConsumptionLast7Days(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	logs := []*domain.InventoryLog{
		stockTake("p1", 1, "3", now),
		stockTake("p1", 6, "4", now),
		// recount found surplus, must not reduce usage
		stockTake("p1", 2, "-2", now),
		// outside the window
		stockTake("p1", 8, "10", now),
		// different product
		stockTake("p2", 1, "5", now),
		// inflow logs never count
		{ID: "l-in", ProductID: "p1", Type: domain.TransactionInflow, Date: now, QuantityChange: decPtr("50")},
	}

	assert.True(t, dec("7").Equal(ConsumptionLast7Days("p1", logs, now)))
}

func TestConsumptionWindowBoundaryInclusive(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	exactly := &domain.InventoryLog{
		ID:                    "l1",
		ProductID:             "p1",
		Type:                  domain.TransactionStockTake,
		Date:                  now.Add(-ConsumptionWindow),
		CalculatedConsumption: decPtr("2"),
	}
	got := ConsumptionLast7Days("p1", []*domain.InventoryLog{exactly}, now)
	assert.True(t, dec("2").Equal(got))
}

func TestCriticalThreshold(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("scales consumption by safety factor", func(t *testing.T) {
		logs := []*domain.InventoryLog{stockTake("p1", 1, "10", now)}
		assert.True(t, dec("11.5").Equal(CriticalThreshold("p1", logs, now)))
	})

	t.Run("falls back when nothing was consumed", func(t *testing.T) {
		assert.True(t, dec("5").Equal(CriticalThreshold("p1", nil, now)))
	})
}

func TestIsCritical(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	flour := &domain.Product{
		ID:      "flour",
		Name:    "Flour",
		Batches: []domain.Batch{{ID: "b1", CurrentStock: dec("10")}},
	}
	logs := []*domain.InventoryLog{stockTake("flour", 3, "8", now)}

	// threshold 8 * 1.15 = 9.2, stock 10 stays above it
	assert.False(t, IsCritical(flour, logs, now))

	flour.Batches[0].CurrentStock = dec("9")
	assert.True(t, IsCritical(flour, logs, now))
}

func TestIsCriticalAtExactThreshold(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := &domain.Product{
		ID:      "p1",
		Batches: []domain.Batch{{ID: "b1", CurrentStock: dec("5")}},
	}
	// no consumption, fallback threshold is 5; stock exactly 5 is fine
	assert.False(t, IsCritical(p, nil, now))

	p.Batches[0].CurrentStock = dec("4.99")
	assert.True(t, IsCritical(p, nil, now))
}

func TestDaysUntilExpiration(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)

	day := func(offset int, hour int) *time.Time {
		d := time.Date(2024, 3, 15+offset, hour, 0, 0, 0, time.UTC)
		return &d
	}

	tests := []struct {
		name string
		exp  *time.Time
		want int
	}{
		{"today late evening", day(0, 1), 0},
		{"tomorrow early morning", day(1, 1), 1},
		{"yesterday", day(-1, 23), -1},
		{"next month", day(31, 12), 31},
		{"no expiration", nil, DaysNoExpiration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilExpiration(tt.exp, now))
		})
	}
}

func TestExpiryBuckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	date := func(offset int) *time.Time {
		d := now.AddDate(0, 0, offset)
		return &d
	}

	p := &domain.Product{
		ID: "p1",
		Batches: []domain.Batch{
			{ID: "expired", ExpirationDate: date(-2), CurrentStock: dec("1")},
			{ID: "today", ExpirationDate: date(0), CurrentStock: dec("1")},
			{ID: "soon", ExpirationDate: date(31), CurrentStock: dec("1")},
			{ID: "far", ExpirationDate: date(32), CurrentStock: dec("1")},
			{ID: "empty", ExpirationDate: date(3), CurrentStock: dec("0")},
			{ID: "dateless", CurrentStock: dec("1")},
		},
	}

	soon := ExpiringSoon(p, now)
	if assert.Len(t, soon, 2) {
		assert.Equal(t, "today", soon[0].ID)
		assert.Equal(t, "soon", soon[1].ID)
	}

	expired := Expired(p, now)
	if assert.Len(t, expired, 1) {
		assert.Equal(t, "expired", expired[0].ID)
	}
}
