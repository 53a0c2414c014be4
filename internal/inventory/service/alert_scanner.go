package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/estimate"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/events"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/sync"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/messaging"
)

// AlertScanner walks the cached snapshot and publishes alert events for
// critical stock, expiring batches and expired batches. Alerts are
// deduplicated per scanner lifetime: a condition fires once and fires
// again only after it clears.
type AlertScanner struct {
	hub       *sync.Hub
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
	now       func() time.Time

	// active is touched only from the scheduler goroutine.
	active map[string]bool
}

// NewAlertScanner creates a new alert scanner
func NewAlertScanner(hub *sync.Hub, publisher *events.InventoryEventPublisher, log *logger.Logger) *AlertScanner {
	return &AlertScanner{
		hub:       hub,
		publisher: publisher,
		logger:    log.WithComponent("alert-scanner"),
		now:       time.Now,
		active:    make(map[string]bool),
	}
}

// ScanAll runs all alert scans against the current snapshot.
func (s *AlertScanner) ScanAll(ctx context.Context) error {
	snap := s.hub.Snapshot()
	now := s.now()

	seen := make(map[string]bool)
	for _, p := range snap.Products {
		s.scanCriticalStock(ctx, p, snap.Logs, now, seen)
		s.scanExpiry(ctx, p, now, seen)
	}

	// conditions that cleared may fire again next time
	for key := range s.active {
		if !seen[key] {
			delete(s.active, key)
		}
	}

	return nil
}

func (s *AlertScanner) scanCriticalStock(ctx context.Context, p *domain.Product, logs []*domain.InventoryLog, now time.Time, seen map[string]bool) {
	if !estimate.IsCritical(p, logs, now) {
		return
	}

	key := "critical_stock:" + p.ID
	seen[key] = true
	if !s.markActive(key) {
		return
	}

	stock := estimate.TotalStock(p)
	threshold := estimate.CriticalThreshold(p.ID, logs, now)
	severity := "warning"
	if stock.IsZero() {
		severity = "critical"
	}

	s.publisher.PublishAlertGenerated(ctx, messaging.AlertGeneratedEvent{
		AlertType:   "critical_stock",
		Severity:    severity,
		ProductID:   p.ID,
		ProductName: p.Name,
		Message:     fmt.Sprintf("%s is below its critical threshold (%s/%s %s)", p.Name, stock, threshold, p.Unit),
	})
	s.logger.Warn().
		Str("product_id", p.ID).
		Str("stock", stock.String()).
		Str("threshold", threshold.String()).
		Msg("critical stock alert")
}

func (s *AlertScanner) scanExpiry(ctx context.Context, p *domain.Product, now time.Time, seen map[string]bool) {
	for _, b := range estimate.Expired(p, now) {
		key := "expired:" + b.ID
		seen[key] = true
		if !s.markActive(key) {
			continue
		}
		s.publisher.PublishAlertGenerated(ctx, messaging.AlertGeneratedEvent{
			AlertType:   "expired",
			Severity:    "critical",
			ProductID:   p.ID,
			ProductName: p.Name,
			BatchID:     b.ID,
			Message:     fmt.Sprintf("%s has an expired batch with %s %s left", p.Name, b.CurrentStock, p.Unit),
		})
	}

	for _, b := range estimate.ExpiringSoon(p, now) {
		key := "expiring_soon:" + b.ID
		seen[key] = true
		if !s.markActive(key) {
			continue
		}
		days := estimate.DaysUntilExpiration(b.ExpirationDate, now)
		s.publisher.PublishAlertGenerated(ctx, messaging.AlertGeneratedEvent{
			AlertType:   "expiring_soon",
			Severity:    "warning",
			ProductID:   p.ID,
			ProductName: p.Name,
			BatchID:     b.ID,
			Message:     fmt.Sprintf("%s has a batch expiring in %d days", p.Name, days),
		})
	}
}

// markActive records the condition and reports whether it is new.
func (s *AlertScanner) markActive(key string) bool {
	if s.active[key] {
		return false
	}
	s.active[key] = true
	return true
}

// AlertScheduler runs alert scans periodically.
type AlertScheduler struct {
	scanner  *AlertScanner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewAlertScheduler creates a new alert scheduler
func NewAlertScheduler(scanner *AlertScanner, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return &AlertScheduler{
		scanner:  scanner,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scheduler in a background goroutine.
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		// Run an initial scan immediately
		if err := s.scanner.ScanAll(ctx); err != nil {
			s.logger.Error().Err(err).Msg("alert scan failed")
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				if err := s.scanner.ScanAll(ctx); err != nil {
					s.logger.Error().Err(err).Msg("alert scan failed")
				}
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
