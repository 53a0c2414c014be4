package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// MemoryProductStore keeps product documents in process memory. It backs
// the degraded local mode and the service tests.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryProductStore(seed []*domain.Product) *MemoryProductStore {
	s := &MemoryProductStore{products: make(map[string]*domain.Product, len(seed))}
	for _, p := range seed {
		s.products[p.ID] = p.Clone()
	}
	return s
}

func (s *MemoryProductStore) Upsert(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *MemoryProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, errors.NotFound("product")
	}
	return p.Clone(), nil
}

func (s *MemoryProductStore) List(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return errors.NotFound("product")
	}
	delete(s.products, id)
	return nil
}

// MemoryLogStore keeps inventory logs in process memory, newest first.
type MemoryLogStore struct {
	mu   sync.RWMutex
	logs []*domain.InventoryLog
}

func NewMemoryLogStore(seed []*domain.InventoryLog) *MemoryLogStore {
	s := &MemoryLogStore{logs: make([]*domain.InventoryLog, 0, len(seed))}
	s.logs = append(s.logs, seed...)
	s.sortLocked()
	return s
}

func (s *MemoryLogStore) Append(_ context.Context, l *domain.InventoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.logs = append(s.logs, &cp)
	s.sortLocked()
	return nil
}

func (s *MemoryLogStore) List(_ context.Context) ([]*domain.InventoryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.InventoryLog, len(s.logs))
	copy(out, s.logs)
	return out, nil
}

func (s *MemoryLogStore) Recent(_ context.Context, limit int) ([]*domain.InventoryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]*domain.InventoryLog, limit)
	copy(out, s.logs[:limit])
	return out, nil
}

func (s *MemoryLogStore) sortLocked() {
	sort.SliceStable(s.logs, func(i, j int) bool {
		return s.logs[i].Date.After(s.logs[j].Date)
	})
}

// LocalProductStore serves reads from a seeded memory copy and silently
// drops writes. Used when no live store is configured: the UI keeps
// working against the cached data, and mutations are logged and ignored
// rather than failed.
type LocalProductStore struct {
	inner *MemoryProductStore
	log   *logger.Logger
}

func NewLocalProductStore(seed []*domain.Product, log *logger.Logger) *LocalProductStore {
	return &LocalProductStore{inner: NewMemoryProductStore(seed), log: log}
}

func (s *LocalProductStore) Upsert(_ context.Context, p *domain.Product) error {
	s.log.Warn().Str("product_id", p.ID).Msg("no live store configured, product write dropped")
	return nil
}

func (s *LocalProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.inner.GetByID(ctx, id)
}

func (s *LocalProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	return s.inner.List(ctx)
}

func (s *LocalProductStore) Delete(_ context.Context, id string) error {
	s.log.Warn().Str("product_id", id).Msg("no live store configured, product delete dropped")
	return nil
}

// LocalLogStore is the log-side counterpart of LocalProductStore.
type LocalLogStore struct {
	inner *MemoryLogStore
	log   *logger.Logger
}

func NewLocalLogStore(seed []*domain.InventoryLog, log *logger.Logger) *LocalLogStore {
	return &LocalLogStore{inner: NewMemoryLogStore(seed), log: log}
}

func (s *LocalLogStore) Append(_ context.Context, l *domain.InventoryLog) error {
	s.log.Warn().Str("log_id", l.ID).Msg("no live store configured, log write dropped")
	return nil
}

func (s *LocalLogStore) List(ctx context.Context) ([]*domain.InventoryLog, error) {
	return s.inner.List(ctx)
}

func (s *LocalLogStore) Recent(ctx context.Context, limit int) ([]*domain.InventoryLog, error) {
	return s.inner.Recent(ctx, limit)
}
