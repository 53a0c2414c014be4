package handler

import (
	"net/http"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// DashboardHandler handles dashboard and lookup endpoints
type DashboardHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.InventoryService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// GetStats returns dashboard statistics
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.GetDashboardStats(r.Context()))
}

// LogFeed returns the most recent inventory log entries, newest first
func (h *DashboardHandler) LogFeed(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.LogFeed(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, logs, &httputil.Meta{Total: len(logs)})
}

// Stores returns the distinct store names seen across all batches
func (h *DashboardHandler) Stores(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Stores(r.Context()))
}

// Manufacturers returns the distinct manufacturer names seen across all batches
func (h *DashboardHandler) Manufacturers(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Manufacturers(r.Context()))
}
