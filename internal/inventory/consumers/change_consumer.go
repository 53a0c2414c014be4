// Package consumers wires RabbitMQ subscriptions into the service. The
// change consumer keeps this instance's snapshot fresh when another
// instance commits a write.
package consumers

import (
	"context"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/sync"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/messaging"
)

// ChangeEventConsumer consumes document change events
type ChangeEventConsumer struct {
	consumer *messaging.Consumer
	hub      *sync.Hub
	source   string
	logger   *logger.Logger
}

// NewChangeEventConsumer creates a new document change consumer. The
// source name filters out this instance's own events, which already
// refreshed the snapshot locally.
func NewChangeEventConsumer(rmq *messaging.RabbitMQ, hub *sync.Hub, source string, log *logger.Logger) (*ChangeEventConsumer, error) {
	// Per-instance queue: change events must fan out to every instance,
	// not round-robin across a shared queue.
	consumer, err := messaging.NewConsumer(rmq, source+".store-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, "store.document.#"); err != nil {
		return nil, err
	}

	c := &ChangeEventConsumer{
		consumer: consumer,
		hub:      hub,
		source:   source,
		logger:   log,
	}

	consumer.RegisterHandler(messaging.EventDocumentChanged, c.handleDocumentChanged)

	return c, nil
}

// Start starts consuming messages
func (c *ChangeEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *ChangeEventConsumer) handleDocumentChanged(ctx context.Context, event *messaging.Event) error {
	if event.Source == c.source {
		return nil
	}

	var data messaging.DocumentChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("collection", data.Collection).
		Str("document_id", data.DocumentID).
		Str("source", event.Source).
		Msg("received document changed event")

	return c.hub.Refresh(ctx)
}
