// Package repository persists products and inventory logs. Both are stored
// as whole JSON documents: products are always read and written as one
// unit including their batches, and logs are append-only records.
package repository

import (
	"context"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
)

// ProductStore is the product document store. Upsert replaces the whole
// document; there are no partial updates.
type ProductStore interface {
	Upsert(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// LogStore is the append-only transaction log store.
type LogStore interface {
	Append(ctx context.Context, l *domain.InventoryLog) error
	List(ctx context.Context) ([]*domain.InventoryLog, error)
	Recent(ctx context.Context, limit int) ([]*domain.InventoryLog, error)
}
