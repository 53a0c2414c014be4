package service

import (
	"context"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/lock"
)

// AcquireLock claims the editing lock on a product for the actor. The
// check-then-write is not atomic across instances; the lock package
// documents the accepted race.
func (s *InventoryService) AcquireLock(ctx context.Context, productID, actorID string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := lock.TryAcquire(p, actorID, now); err != nil {
		return nil, err
	}

	p.LastUpdated = now
	if err := s.products.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p.ID)

	s.logger.Info().
		Str("product_id", productID).
		Str("actor_id", actorID).
		Msg("editing lock acquired")
	return p, nil
}

// ForceUnlock overrides another session's lock after explicit operator
// confirmation, then claims it for the new actor.
func (s *InventoryService) ForceUnlock(ctx context.Context, productID, actorID string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	oldHolder := p.LockedBy
	lock.ForceUnlock(p)

	now := s.now().UTC()
	if err := lock.TryAcquire(p, actorID, now); err != nil {
		return nil, err
	}

	p.LastUpdated = now
	if err := s.products.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.publisher.PublishLockForced(ctx, productID, oldHolder, actorID)
	s.afterWrite(ctx, p.ID)

	s.logger.Warn().
		Str("product_id", productID).
		Str("old_holder", oldHolder).
		Str("actor_id", actorID).
		Msg("editing lock forcibly taken over")
	return p, nil
}

// ReleaseLock gives the lock up without saving an edit.
func (s *InventoryService) ReleaseLock(ctx context.Context, productID, actorID string) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	// Only the holder releases; someone else's live lock stays put and
	// an already expired lock needs no write at all.
	st := lock.Inspect(p, actorID, s.now().UTC())
	if st.State != lock.HeldBySelf {
		return nil
	}

	lock.Release(p)
	if err := s.products.Upsert(ctx, p); err != nil {
		return err
	}
	s.afterWrite(ctx, p.ID)
	return nil
}

// LockStatus reports the lock situation as seen by the actor.
func (s *InventoryService) LockStatus(ctx context.Context, productID, actorID string) (lock.Status, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return lock.Status{}, err
	}
	return lock.Inspect(p, actorID, s.now().UTC()), nil
}
