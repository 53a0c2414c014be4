package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies an inventory log entry
type TransactionType string

const (
	// TransactionCreate records a new product together with its first batch
	TransactionCreate TransactionType = "CREATE"
	// TransactionInflow records a new batch arriving for an existing product
	TransactionInflow TransactionType = "INFLOW"
	// TransactionStockTake records a physical recount of one batch
	TransactionStockTake TransactionType = "STOCK_TAKE"
)

// Batch is one delivery of stock for a product. It is owned exclusively
// by its parent product and has no independent lifecycle: batches travel
// inside the product document and are always written as a whole.
type Batch struct {
	ID           string          `json:"id"`
	PLU          string          `json:"plu,omitempty"` // snapshot at arrival time; master PLU lives on the product
	EAN          string          `json:"ean,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Store        string          `json:"store,omitempty"`
	PriceNoVAT   decimal.Decimal `json:"price_no_vat"`
	// ExpirationDate is a calendar date; nil means the batch never expires.
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	DateAdded      time.Time       `json:"date_added"`
}

// Product is the unit of storage and of edit contention. Batches are kept
// in arrival order; the advisory lock fields are plain data that clients
// interpret, the store does not enforce them.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PLU         string    `json:"plu,omitempty"`
	Unit        string    `json:"unit"` // e.g. KG, L
	Batches     []Batch   `json:"batches"`
	LastUpdated time.Time `json:"last_updated"`

	// Advisory editing lock
	LockedBy      string     `json:"locked_by,omitempty"`
	LockTimestamp *time.Time `json:"lock_timestamp,omitempty"`
}

// Clone returns a deep copy of the product.
// Snapshots handed to subscribers must not alias the stored document.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Batches = make([]Batch, len(p.Batches))
	copy(cp.Batches, p.Batches)
	if p.LockTimestamp != nil {
		ts := *p.LockTimestamp
		cp.LockTimestamp = &ts
	}
	return &cp
}

// Batch returns the batch with the given ID, or nil.
func (p *Product) Batch(batchID string) *Batch {
	for i := range p.Batches {
		if p.Batches[i].ID == batchID {
			return &p.Batches[i]
		}
	}
	return nil
}

// NameMatches reports whether the product name matches case-insensitively.
func (p *Product) NameMatches(name string) bool {
	return strings.EqualFold(p.Name, name)
}

// InventoryLog is an immutable, append-only transaction record. It carries
// a snapshot of the fields relevant at the time of the action so that
// historical reports stay accurate even if the product later changes.
// Logs reference products and batches by ID only; the referenced entity
// may be deleted later without invalidating the log.
type InventoryLog struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	BatchID      string          `json:"batch_id,omitempty"`
	BatchDetails string          `json:"batch_details,omitempty"`
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"date"`
	ActorID      string          `json:"actor_id,omitempty"`

	QuantityChange        *decimal.Decimal `json:"quantity_change,omitempty"` // INFLOW
	PreviousStock         *decimal.Decimal `json:"previous_stock,omitempty"`  // STOCK_TAKE
	ActualCount           *decimal.Decimal `json:"actual_count,omitempty"`
	CalculatedConsumption *decimal.Decimal `json:"calculated_consumption,omitempty"`

	Notes string `json:"notes,omitempty"`
}
