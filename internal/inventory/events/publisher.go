// Package events publishes inventory domain events. The publisher is
// nil-safe: running without a message broker (local mode) simply skips
// publishing.
package events

import (
	"context"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher.
// The source should be unique per instance so consumers can tell their
// own events apart from those of sibling instances.
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, source string, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, source, log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishProductCreated publishes a product created event
func (p *InventoryEventPublisher) PublishProductCreated(ctx context.Context, product *domain.Product, actorID string) {
	if p == nil {
		return
	}

	data := messaging.ProductCreatedEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		PLU:         product.PLU,
		Unit:        product.Unit,
		ActorID:     actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductCreated, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish product created event")
	}
}

// PublishStockInflow publishes a stock inflow event
func (p *InventoryEventPublisher) PublishStockInflow(ctx context.Context, product *domain.Product, batch *domain.Batch, actorID string) {
	if p == nil {
		return
	}

	data := messaging.StockInflowEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		BatchID:     batch.ID,
		Quantity:    batch.CurrentStock.String(),
		Store:       batch.Store,
		ActorID:     actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockInflow, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish stock inflow event")
	}
}

// PublishStockTake publishes a stock take event
func (p *InventoryEventPublisher) PublishStockTake(ctx context.Context, l *domain.InventoryLog) {
	if p == nil {
		return
	}

	data := messaging.StockTakeEvent{
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		BatchID:     l.BatchID,
		ActorID:     l.ActorID,
	}
	if l.PreviousStock != nil {
		data.Previous = l.PreviousStock.String()
	}
	if l.ActualCount != nil {
		data.Counted = l.ActualCount.String()
	}
	if l.CalculatedConsumption != nil {
		data.Consumption = l.CalculatedConsumption.String()
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockTake, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", l.ProductID).Msg("failed to publish stock take event")
	}
}

// PublishLockForced publishes a lock takeover event
func (p *InventoryEventPublisher) PublishLockForced(ctx context.Context, productID, oldHolder, newHolder string) {
	if p == nil {
		return
	}

	data := messaging.LockForcedEvent{
		ProductID: productID,
		OldHolder: oldHolder,
		NewHolder: newHolder,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLockForced, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", productID).Msg("failed to publish lock forced event")
	}
}

// PublishAlertGenerated publishes an alert generated event
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, alert messaging.AlertGeneratedEvent) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, alert); err != nil {
		p.logger.Error().Err(err).Str("product_id", alert.ProductID).Msg("failed to publish alert generated event")
	}
}

// PublishDocumentChanged tells other instances to reload a collection
// after a committed write.
func (p *InventoryEventPublisher) PublishDocumentChanged(ctx context.Context, collection, documentID string) {
	if p == nil {
		return
	}

	data := messaging.DocumentChangedEvent{
		Collection: collection,
		DocumentID: documentID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventDocumentChanged, data); err != nil {
		p.logger.Error().Err(err).Str("collection", collection).Msg("failed to publish document changed event")
	}
}
