package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/pkg/actor"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// LockHandler handles the advisory edit lock endpoints. Every lock
// operation needs to know who is asking, so the X-Actor-ID header is
// mandatory here even though the rest of the API treats it as optional.
type LockHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewLockHandler creates a new lock handler
func NewLockHandler(svc *service.InventoryService, log *logger.Logger) *LockHandler {
	return &LockHandler{
		service: svc,
		logger:  log,
	}
}

func requireActor(r *http.Request) (string, error) {
	id := actor.FromContext(r.Context())
	if id == "" {
		return "", errors.BadRequest("the " + actor.HeaderName + " header is required for lock operations")
	}
	return id, nil
}

// Acquire attempts to take the edit lock on a product.
// A live foreign lock answers 409 with the holder in the error details.
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, err := requireActor(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.AcquireLock(r.Context(), id, actorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Force takes over the lock regardless of the current holder
func (h *LockHandler) Force(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, err := requireActor(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.ForceUnlock(r.Context(), id, actorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Release gives the lock back
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, err := requireActor(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.ReleaseLock(r.Context(), id, actorID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Status reports the lock state of a product as seen by the caller
func (h *LockHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, err := requireActor(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	status, err := h.service.LockStatus(r.Context(), id, actorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"state":       status.State.String(),
		"holder":      status.Holder,
		"acquired_at": status.AcquiredAt,
	})
}
