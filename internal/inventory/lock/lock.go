// Package lock implements the advisory editing lock carried on product
// documents. The lock is cooperative: it is plain data that well-behaved
// clients check before editing, not a guarantee the store enforces.
//
// Acquisition is read-then-write without a store-side conditional update,
// so two actors checking an expired lock at the same moment can both
// believe they acquired it; the later write wins. This is an accepted
// trade-off for a handful of concurrent editors.
package lock

import (
	"time"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

// TTL is how long a lock stays valid without being refreshed. A lock older
// than this is treated as abandoned and may be taken over silently.
const TTL = 5 * time.Minute

// State summarizes who holds a product's lock relative to one actor.
type State int

const (
	Unlocked State = iota
	HeldBySelf
	HeldByOther
)

func (s State) String() string {
	switch s {
	case HeldBySelf:
		return "held_by_self"
	case HeldByOther:
		return "held_by_other"
	default:
		return "unlocked"
	}
}

// Status is the lock situation as seen by one actor at one instant.
type Status struct {
	State      State      `json:"state"`
	Holder     string     `json:"holder,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
}

// Inspect evaluates the product's lock fields against the clock. An
// expired lock reports Unlocked even though the stale fields are still
// present on the document.
func Inspect(p *domain.Product, actorID string, now time.Time) Status {
	if p.LockedBy == "" || p.LockTimestamp == nil {
		return Status{State: Unlocked}
	}
	if now.Sub(*p.LockTimestamp) >= TTL {
		return Status{State: Unlocked}
	}
	st := Status{Holder: p.LockedBy, AcquiredAt: p.LockTimestamp}
	if p.LockedBy == actorID {
		st.State = HeldBySelf
	} else {
		st.State = HeldByOther
	}
	return st
}

// TryAcquire claims the lock for actorID, mutating the product in place.
// Reacquiring a lock the actor already holds refreshes its timestamp.
// A live lock held by someone else is rejected with a conflict error that
// carries the holder's identity, so the caller can offer a takeover.
func TryAcquire(p *domain.Product, actorID string, now time.Time) error {
	st := Inspect(p, actorID, now)
	if st.State == HeldByOther {
		return errors.Locked(st.Holder, st.AcquiredAt.Format(time.RFC3339))
	}
	ts := now
	p.LockedBy = actorID
	p.LockTimestamp = &ts
	return nil
}

// ForceUnlock clears the lock regardless of holder or age. The caller is
// expected to record who forced it.
func ForceUnlock(p *domain.Product) {
	p.LockedBy = ""
	p.LockTimestamp = nil
}

// Release clears the lock. Saving a product always releases its lock, so
// no holder check is made; a stale release after takeover only clears a
// lock the releasing actor no longer owns, which the next TryAcquire
// resolves.
func Release(p *domain.Product) {
	p.LockedBy = ""
	p.LockTimestamp = nil
}
