package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/estimate"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/events"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/lock"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/report"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/repository"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/sync"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// Collection names used in document change notifications.
const (
	CollectionProducts = "products"
	CollectionLogs     = "inventory_logs"
)

// LogFeedLimit caps the transaction feed returned to clients.
const LogFeedLimit = 100

// InventoryService handles inventory business logic. All mutations go
// through here: save, log, publish, refresh, in that order.
type InventoryService struct {
	products  repository.ProductStore
	logs      repository.LogStore
	hub       *sync.Hub
	publisher *events.InventoryEventPublisher
	reports   *report.Generator
	logger    *logger.Logger
	readOnly  bool

	now func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	products repository.ProductStore,
	logs repository.LogStore,
	hub *sync.Hub,
	publisher *events.InventoryEventPublisher,
	reports *report.Generator,
	log *logger.Logger,
	readOnly bool,
) *InventoryService {
	return &InventoryService{
		products:  products,
		logs:      logs,
		hub:       hub,
		publisher: publisher,
		reports:   reports,
		logger:    log,
		readOnly:  readOnly,
		now:       time.Now,
	}
}

// GenerateReport builds the stock summary from the cached snapshot and
// asks the text-generation service for an operator report. The returned
// string is always printable; failures become a fixed fallback message.
func (s *InventoryService) GenerateReport(ctx context.Context) string {
	snap := s.hub.Snapshot()
	summary := report.BuildSummary(snap.Products, snap.Logs)
	return s.reports.Generate(ctx, summary)
}

// BatchInput carries the details of one incoming delivery.
type BatchInput struct {
	EAN            string
	Manufacturer   string
	Store          string
	PriceNoVAT     decimal.Decimal
	ExpirationDate *time.Time
	Quantity       decimal.Decimal
}

// DeliveryInput records a delivery for a possibly new product.
type DeliveryInput struct {
	Name    string
	PLU     string
	Unit    string
	Batch   BatchInput
	ActorID string
}

// EnrichedProduct is a product with its derived stock figures attached.
type EnrichedProduct struct {
	*domain.Product
	TotalStock        decimal.Decimal `json:"total_stock"`
	TotalValue        decimal.Decimal `json:"total_value"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	IsCritical        bool            `json:"is_critical"`
	ExpiringSoonCount int             `json:"expiring_soon_count"`
	ExpiredCount      int             `json:"expired_count"`
	// NearestExpiryDays is the smallest days-until-expiration across
	// batches with stock left; 999 when none of them carries a date.
	NearestExpiryDays int `json:"nearest_expiry_days"`
}

// RecordDelivery registers an incoming delivery. If a product with the
// same PLU exists the batch is attached to it; failing that, a product
// with the same name compared case-insensitively is used. Only when
// neither matches is a new product created. PLU identity wins over name
// identity so that a renamed product keeps accumulating under its code.
func (s *InventoryService) RecordDelivery(ctx context.Context, in DeliveryInput) (*domain.Product, *domain.InventoryLog, error) {
	if in.Name == "" {
		return nil, nil, errors.BadRequest("product name is required")
	}
	if !in.Batch.Quantity.IsPositive() {
		return nil, nil, errors.BadRequest("delivery quantity must be positive")
	}

	existing, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	target := matchProduct(existing, in.PLU, in.Name)
	now := s.now().UTC()

	batch := domain.Batch{
		ID:             uuid.New().String(),
		PLU:            in.PLU,
		EAN:            in.Batch.EAN,
		Manufacturer:   in.Batch.Manufacturer,
		Store:          in.Batch.Store,
		PriceNoVAT:     in.Batch.PriceNoVAT,
		ExpirationDate: in.Batch.ExpirationDate,
		CurrentStock:   in.Batch.Quantity,
		DateAdded:      now,
	}

	var entry *domain.InventoryLog
	created := target == nil

	if created {
		target = &domain.Product{
			ID:   uuid.New().String(),
			Name: in.Name,
			PLU:  in.PLU,
			Unit: in.Unit,
		}
		entry = s.newLog(target, &batch, domain.TransactionCreate, in.ActorID, now)
		qty := in.Batch.Quantity
		entry.QuantityChange = &qty
	} else {
		target = target.Clone()
		entry = s.newLog(target, &batch, domain.TransactionInflow, in.ActorID, now)
		qty := in.Batch.Quantity
		entry.QuantityChange = &qty
	}

	target.Batches = append(target.Batches, batch)
	if err := s.saveProduct(ctx, target, now); err != nil {
		return nil, nil, err
	}
	s.appendLog(ctx, entry)

	if created {
		s.publisher.PublishProductCreated(ctx, target, in.ActorID)
	} else {
		s.publisher.PublishStockInflow(ctx, target, &batch, in.ActorID)
	}
	s.afterWrite(ctx, target.ID)

	return target, entry, nil
}

// AddBatch attaches a delivery to an explicitly chosen product, skipping
// the PLU and name matching of RecordDelivery.
func (s *InventoryService) AddBatch(ctx context.Context, productID string, in BatchInput, actorID string) (*domain.Product, *domain.InventoryLog, error) {
	if !in.Quantity.IsPositive() {
		return nil, nil, errors.BadRequest("delivery quantity must be positive")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	batch := domain.Batch{
		ID:             uuid.New().String(),
		PLU:            p.PLU,
		EAN:            in.EAN,
		Manufacturer:   in.Manufacturer,
		Store:          in.Store,
		PriceNoVAT:     in.PriceNoVAT,
		ExpirationDate: in.ExpirationDate,
		CurrentStock:   in.Quantity,
		DateAdded:      now,
	}

	entry := s.newLog(p, &batch, domain.TransactionInflow, actorID, now)
	qty := in.Quantity
	entry.QuantityChange = &qty

	p.Batches = append(p.Batches, batch)
	if err := s.saveProduct(ctx, p, now); err != nil {
		return nil, nil, err
	}
	s.appendLog(ctx, entry)

	s.publisher.PublishStockInflow(ctx, p, &batch, actorID)
	s.afterWrite(ctx, p.ID)

	return p, entry, nil
}

// RecordStockTake replaces a batch count with a physically counted value
// and derives consumption as the difference. A count above the previous
// value yields negative consumption, which is recorded as-is but never
// feeds the usage estimate.
func (s *InventoryService) RecordStockTake(ctx context.Context, productID, batchID string, actualCount decimal.Decimal, actorID string) (*domain.InventoryLog, error) {
	if actualCount.IsNegative() {
		return nil, errors.BadRequest("counted quantity cannot be negative")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	batch := p.Batch(batchID)
	if batch == nil {
		return nil, errors.NotFound("batch")
	}

	now := s.now().UTC()
	previous := batch.CurrentStock
	consumption := previous.Sub(actualCount)
	batch.CurrentStock = actualCount

	entry := s.newLog(p, batch, domain.TransactionStockTake, actorID, now)
	entry.PreviousStock = &previous
	entry.ActualCount = &actualCount
	entry.CalculatedConsumption = &consumption

	if err := s.saveProduct(ctx, p, now); err != nil {
		return nil, err
	}
	s.appendLog(ctx, entry)

	s.publisher.PublishStockTake(ctx, entry)
	s.afterWrite(ctx, p.ID)

	return entry, nil
}

// GetProduct returns one product with derived figures.
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*EnrichedProduct, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := s.hub.Snapshot()
	return s.enrich(p, snap.Logs), nil
}

// ListProducts returns all products with derived figures, served from the
// cached snapshot.
func (s *InventoryService) ListProducts(ctx context.Context) ([]*EnrichedProduct, error) {
	snap := s.hub.Snapshot()
	out := make([]*EnrichedProduct, 0, len(snap.Products))
	for _, p := range snap.Products {
		out = append(out, s.enrich(p, snap.Logs))
	}
	return out, nil
}

// SearchProducts filters the snapshot by a case-insensitive substring
// match on name, PLU or batch EAN.
func (s *InventoryService) SearchProducts(ctx context.Context, query string) ([]*EnrichedProduct, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.ListProducts(ctx)
	}

	snap := s.hub.Snapshot()
	var out []*EnrichedProduct
	for _, p := range snap.Products {
		if productMatchesQuery(p, query) {
			out = append(out, s.enrich(p, snap.Logs))
		}
	}
	return out, nil
}

// RecentProducts returns the most recently updated products.
func (s *InventoryService) RecentProducts(ctx context.Context, limit int) ([]*EnrichedProduct, error) {
	snap := s.hub.Snapshot()
	products := make([]*domain.Product, len(snap.Products))
	copy(products, snap.Products)
	sort.Slice(products, func(i, j int) bool {
		return products[i].LastUpdated.After(products[j].LastUpdated)
	})
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}

	out := make([]*EnrichedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, s.enrich(p, snap.Logs))
	}
	return out, nil
}

// DeleteProduct removes a product document. Its logs remain; they refer
// to the product by ID and stay valid as history.
func (s *InventoryService) DeleteProduct(ctx context.Context, id, actorID string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id).Str("actor_id", actorID).Msg("product deleted")
	s.afterWrite(ctx, id)
	return nil
}

// LogFeed returns the most recent transactions, newest first.
func (s *InventoryService) LogFeed(ctx context.Context) ([]*domain.InventoryLog, error) {
	return s.logs.Recent(ctx, LogFeedLimit)
}

// Stores returns the distinct store names seen across batches.
func (s *InventoryService) Stores(ctx context.Context) []string {
	return distinctBatchField(s.hub.Snapshot().Products, func(b *domain.Batch) string { return b.Store })
}

// Manufacturers returns the distinct manufacturer names seen across batches.
func (s *InventoryService) Manufacturers(ctx context.Context) []string {
	return distinctBatchField(s.hub.Snapshot().Products, func(b *domain.Batch) string { return b.Manufacturer })
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	TotalProducts  int             `json:"total_products"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CriticalCount  int             `json:"critical_count"`
	ExpiringCount  int             `json:"expiring_count"`
	ExpiredCount   int             `json:"expired_count"`
	UnitBreakdown  map[string]int  `json:"unit_breakdown"`
	LastActivityAt *time.Time      `json:"last_activity_at,omitempty"`
}

// GetDashboardStats aggregates the snapshot into dashboard figures.
func (s *InventoryService) GetDashboardStats(ctx context.Context) *DashboardStats {
	snap := s.hub.Snapshot()
	now := s.now()

	stats := &DashboardStats{
		TotalProducts: len(snap.Products),
		TotalValue:    decimal.Zero,
		UnitBreakdown: make(map[string]int),
	}

	for _, p := range snap.Products {
		stats.TotalValue = stats.TotalValue.Add(estimate.TotalValue(p))
		if estimate.IsCritical(p, snap.Logs, now) {
			stats.CriticalCount++
		}
		stats.ExpiringCount += len(estimate.ExpiringSoon(p, now))
		stats.ExpiredCount += len(estimate.Expired(p, now))
		if p.Unit != "" {
			stats.UnitBreakdown[p.Unit]++
		}
	}

	if len(snap.Logs) > 0 {
		// logs are ordered newest first
		latest := snap.Logs[0].Date
		stats.LastActivityAt = &latest
	}
	return stats
}

func (s *InventoryService) enrich(p *domain.Product, logs []*domain.InventoryLog) *EnrichedProduct {
	now := s.now()
	nearest := estimate.DaysNoExpiration
	for i := range p.Batches {
		b := p.Batches[i]
		if !b.CurrentStock.IsPositive() {
			continue
		}
		if d := estimate.DaysUntilExpiration(b.ExpirationDate, now); d < nearest {
			nearest = d
		}
	}

	return &EnrichedProduct{
		Product:           p,
		TotalStock:        estimate.TotalStock(p),
		TotalValue:        estimate.TotalValue(p),
		CriticalThreshold: estimate.CriticalThreshold(p.ID, logs, now),
		IsCritical:        estimate.IsCritical(p, logs, now),
		ExpiringSoonCount: len(estimate.ExpiringSoon(p, now)),
		ExpiredCount:      len(estimate.Expired(p, now)),
		NearestExpiryDays: nearest,
	}
}

// saveProduct stamps and persists the product. Saving always releases
// the advisory lock: a committed edit ends the editing session.
func (s *InventoryService) saveProduct(ctx context.Context, p *domain.Product, now time.Time) error {
	lock.Release(p)
	p.LastUpdated = now
	return s.products.Upsert(ctx, p)
}

// appendLog writes the transaction record. The product write and the log
// write are independent; a failed log write leaves the stock change in
// place and is reported in the log only.
func (s *InventoryService) appendLog(ctx context.Context, entry *domain.InventoryLog) {
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.WithError(err).Error().
			Str("product_id", entry.ProductID).
			Str("type", string(entry.Type)).
			Msg("failed to append inventory log")
	}
}

// afterWrite refreshes the local snapshot and notifies other instances.
func (s *InventoryService) afterWrite(ctx context.Context, productID string) {
	if err := s.hub.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error().Msg("snapshot refresh after write failed")
	}
	s.publisher.PublishDocumentChanged(ctx, CollectionProducts, productID)
}

func (s *InventoryService) newLog(p *domain.Product, b *domain.Batch, t domain.TransactionType, actorID string, now time.Time) *domain.InventoryLog {
	entry := &domain.InventoryLog{
		ID:          uuid.New().String(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Type:        t,
		Date:        now,
		ActorID:     actorID,
	}
	if b != nil {
		entry.BatchID = b.ID
		entry.BatchDetails = batchDetails(b)
	}
	return entry
}

func batchDetails(b *domain.Batch) string {
	var parts []string
	if b.Store != "" {
		parts = append(parts, b.Store)
	}
	if b.Manufacturer != "" {
		parts = append(parts, b.Manufacturer)
	}
	if b.EAN != "" {
		parts = append(parts, fmt.Sprintf("EAN %s", b.EAN))
	}
	return strings.Join(parts, ", ")
}

func matchProduct(products []*domain.Product, plu, name string) *domain.Product {
	if plu != "" {
		for _, p := range products {
			if p.PLU == plu {
				return p
			}
		}
	}
	for _, p := range products {
		if p.NameMatches(name) {
			return p
		}
	}
	return nil
}

func productMatchesQuery(p *domain.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) {
		return true
	}
	if p.PLU != "" && strings.Contains(strings.ToLower(p.PLU), query) {
		return true
	}
	for i := range p.Batches {
		if p.Batches[i].EAN != "" && strings.Contains(strings.ToLower(p.Batches[i].EAN), query) {
			return true
		}
	}
	return false
}

func distinctBatchField(products []*domain.Product, field func(*domain.Batch) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		for i := range p.Batches {
			v := field(&p.Batches[i])
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
