// Package sync fans out live collection snapshots to in-process
// subscribers. Every committed write triggers a reload of the full
// collection followed by a broadcast; subscribers always see whole
// snapshots, never deltas, so a missed intermediate update is harmless.
package sync

import (
	"context"
	"sync"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/repository"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// Snapshot is a consistent point-in-time copy of both collections.
type Snapshot struct {
	Products []*domain.Product
	Logs     []*domain.InventoryLog
}

// Hub caches the latest snapshot and pushes refreshed snapshots to
// subscribers. Reads served from the hub never hit the store.
type Hub struct {
	products repository.ProductStore
	logs     repository.LogStore
	log      *logger.Logger

	mu          sync.RWMutex
	snapshot    Snapshot
	nextSubID   int
	productSubs map[int]chan []*domain.Product
	logSubs     map[int]chan []*domain.InventoryLog
}

func NewHub(products repository.ProductStore, logs repository.LogStore, log *logger.Logger) *Hub {
	return &Hub{
		products:    products,
		logs:        logs,
		log:         log.WithComponent("sync-hub"),
		productSubs: make(map[int]chan []*domain.Product),
		logSubs:     make(map[int]chan []*domain.InventoryLog),
	}
}

// Refresh reloads both collections and broadcasts the new snapshot.
// On a load failure the previous snapshot stays in place so readers keep
// seeing the last known-good data.
func (h *Hub) Refresh(ctx context.Context) error {
	products, err := h.products.List(ctx)
	if err != nil {
		h.log.WithError(err).Error().Msg("snapshot refresh failed, keeping previous products")
		return err
	}
	logs, err := h.logs.List(ctx)
	if err != nil {
		h.log.WithError(err).Error().Msg("snapshot refresh failed, keeping previous logs")
		return err
	}

	// Broadcasting under the lock keeps sends ordered against cancel,
	// which closes subscriber channels while holding the same lock.
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = Snapshot{Products: products, Logs: logs}
	for _, ch := range h.productSubs {
		sendLatest(ch, products)
	}
	for _, ch := range h.logSubs {
		sendLatest(ch, logs)
	}
	return nil
}

// sendLatest delivers without blocking. A slow subscriber has its stale
// pending snapshot replaced by the current one.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Snapshot returns the cached snapshot. The slices are shared with other
// readers and must be treated as immutable.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// SubscribeProducts registers a product snapshot subscriber. The current
// snapshot is delivered immediately. The returned function cancels the
// subscription and closes the channel.
func (h *Hub) SubscribeProducts() (<-chan []*domain.Product, func()) {
	ch := make(chan []*domain.Product, 1)

	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.productSubs[id] = ch
	current := h.snapshot.Products
	h.mu.Unlock()

	sendLatest(ch, current)

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.productSubs[id]; ok {
			delete(h.productSubs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscribeLogs registers a log snapshot subscriber, mirroring
// SubscribeProducts.
func (h *Hub) SubscribeLogs() (<-chan []*domain.InventoryLog, func()) {
	ch := make(chan []*domain.InventoryLog, 1)

	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.logSubs[id] = ch
	current := h.snapshot.Logs
	h.mu.Unlock()

	sendLatest(ch, current)

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.logSubs[id]; ok {
			delete(h.logSubs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
