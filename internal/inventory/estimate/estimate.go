// Package estimate derives stock figures from the raw product and log data.
// Everything here is a pure function of its inputs plus an explicit clock
// value, so the handlers can call these on every request without caching.
package estimate

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
)

const (
	// ConsumptionWindow is the trailing period used for usage estimation.
	ConsumptionWindow = 7 * 24 * time.Hour

	// ExpiringSoonDays is the upper bound (inclusive) of the expiring-soon bucket.
	ExpiringSoonDays = 31

	// DaysNoExpiration is returned for batches without an expiration date.
	// Large enough to sort such batches after every dated one.
	DaysNoExpiration = 999
)

var (
	// safetyFactor pads the observed weekly consumption so a product is
	// flagged slightly before it actually runs out.
	safetyFactor = decimal.RequireFromString("1.15")

	// fallbackThreshold applies when a product has no recorded consumption.
	fallbackThreshold = decimal.NewFromInt(5)
)

// TotalStock sums the current stock across all batches of a product.
func TotalStock(p *domain.Product) decimal.Decimal {
	total := decimal.Zero
	for i := range p.Batches {
		total = total.Add(p.Batches[i].CurrentStock)
	}
	return total
}

// TotalValue sums stock times net price across all batches.
func TotalValue(p *domain.Product) decimal.Decimal {
	total := decimal.Zero
	for i := range p.Batches {
		total = total.Add(p.Batches[i].CurrentStock.Mul(p.Batches[i].PriceNoVAT))
	}
	return total
}

// ConsumptionLast7Days sums positive recorded consumption from stock takes
// of the product dated within the trailing window. The window boundary is
// inclusive. Negative consumption (a recount found more than expected)
// does not offset usage.
func ConsumptionLast7Days(productID string, logs []*domain.InventoryLog, now time.Time) decimal.Decimal {
	cutoff := now.Add(-ConsumptionWindow)
	total := decimal.Zero
	for _, l := range logs {
		if l.ProductID != productID || l.Type != domain.TransactionStockTake {
			continue
		}
		if l.Date.Before(cutoff) || l.CalculatedConsumption == nil {
			continue
		}
		if l.CalculatedConsumption.IsPositive() {
			total = total.Add(*l.CalculatedConsumption)
		}
	}
	return total
}

// CriticalThreshold is the weekly consumption padded by a safety factor,
// or a fixed fallback when no consumption was recorded in the window.
func CriticalThreshold(productID string, logs []*domain.InventoryLog, now time.Time) decimal.Decimal {
	consumption := ConsumptionLast7Days(productID, logs, now)
	if consumption.IsZero() {
		return fallbackThreshold
	}
	return consumption.Mul(safetyFactor)
}

// IsCritical reports whether total stock has fallen strictly below the
// critical threshold. Stock exactly at the threshold is not critical.
func IsCritical(p *domain.Product, logs []*domain.InventoryLog, now time.Time) bool {
	return TotalStock(p).LessThan(CriticalThreshold(p.ID, logs, now))
}

// DaysUntilExpiration counts whole calendar days from now to the batch
// expiration date, both normalized to local midnight. Today is 0, tomorrow
// is 1, yesterday is -1. A batch without a date reports DaysNoExpiration.
func DaysUntilExpiration(expiration *time.Time, now time.Time) int {
	if expiration == nil {
		return DaysNoExpiration
	}
	exp := startOfDay(expiration.In(now.Location()))
	today := startOfDay(now)
	// Round absorbs DST shortening or lengthening a day in the window.
	return int(math.Round(exp.Sub(today).Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ExpiringSoon returns batches with stock left that expire between today
// and ExpiringSoonDays from now, inclusive on both ends.
func ExpiringSoon(p *domain.Product, now time.Time) []domain.Batch {
	var out []domain.Batch
	for i := range p.Batches {
		b := p.Batches[i]
		if !b.CurrentStock.IsPositive() {
			continue
		}
		d := DaysUntilExpiration(b.ExpirationDate, now)
		if d >= 0 && d <= ExpiringSoonDays {
			out = append(out, b)
		}
	}
	return out
}

// Expired returns batches with stock left whose expiration date has passed.
func Expired(p *domain.Product, now time.Time) []domain.Batch {
	var out []domain.Batch
	for i := range p.Batches {
		b := p.Batches[i]
		if !b.CurrentStock.IsPositive() {
			continue
		}
		if DaysUntilExpiration(b.ExpirationDate, now) < 0 {
			out = append(out, b)
		}
	}
	return out
}
