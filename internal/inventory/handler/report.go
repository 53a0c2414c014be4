package handler

import (
	"net/http"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// ReportHandler handles the generated stock report endpoint
type ReportHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.InventoryService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// Generate produces a narrative stock report. Generation never fails
// from the caller's point of view: an unconfigured or unreachable
// text service yields a fixed explanatory message instead.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	text := h.service.GenerateReport(r.Context())

	httputil.JSON(w, http.StatusOK, map[string]string{"report": text})
}
