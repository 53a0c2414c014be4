package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory events
	EventProductCreated = "inventory.product.created"
	EventStockInflow    = "inventory.stock.inflow"
	EventStockTake      = "inventory.stock.take"
	EventLockForced     = "inventory.lock.forced"
	EventAlertGenerated = "inventory.alert.generated"

	// Store synchronization events
	EventDocumentChanged = "store.document.changed"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ProductCreatedEvent is published when a brand new product is registered
type ProductCreatedEvent struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	PLU         string `json:"plu,omitempty"`
	Unit        string `json:"unit"`
	ActorID     string `json:"actor_id"`
}

// StockInflowEvent is published when a new batch arrives for a product
type StockInflowEvent struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	BatchID     string `json:"batch_id"`
	Quantity    string `json:"quantity"`
	Store       string `json:"store,omitempty"`
	ActorID     string `json:"actor_id"`
}

// StockTakeEvent is published when a physical recount replaces a batch count
type StockTakeEvent struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	BatchID     string `json:"batch_id"`
	Previous    string `json:"previous_stock"`
	Counted     string `json:"actual_count"`
	Consumption string `json:"calculated_consumption"`
	ActorID     string `json:"actor_id"`
}

// LockForcedEvent is published when an operator overrides another session's lock
type LockForcedEvent struct {
	ProductID string `json:"product_id"`
	OldHolder string `json:"old_holder"`
	NewHolder string `json:"new_holder"`
}

// AlertGeneratedEvent is published by the alert scanner
type AlertGeneratedEvent struct {
	AlertType   string `json:"alert_type"`
	Severity    string `json:"severity"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	BatchID     string `json:"batch_id,omitempty"`
	Message     string `json:"message"`
}

// DocumentChangedEvent tells other instances to reload a collection.
// Carrying only the collection name keeps the contract "broadcast the
// latest full snapshot": receivers re-read, they never merge deltas.
type DocumentChangedEvent struct {
	Collection string `json:"collection"`
	DocumentID string `json:"document_id"`
}
