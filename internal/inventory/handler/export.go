package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/pkg/actor"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// ExportHandler handles export, backup and restore endpoints
type ExportHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.InventoryService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

func serveAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.Write(body)
}

// ExportCSV serves the current stock list as a CSV download
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteStockCSV(r.Context(), &buf); err != nil {
		h.logger.Error().Err(err).Msg("failed to generate stock CSV")
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("stock-%s.csv", time.Now().Format("2006-01-02"))
	serveAttachment(w, "text/csv", filename, buf.Bytes())
}

// ExportPDF serves the stock register as a PDF download
func (h *ExportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteStockPDF(r.Context(), &buf); err != nil {
		h.logger.Error().Err(err).Msg("failed to generate stock register PDF")
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("stock-register-%s.pdf", time.Now().Format("2006-01-02"))
	serveAttachment(w, "application/pdf", filename, buf.Bytes())
}

// DownloadBackup serves a full JSON backup of products and logs
func (h *ExportHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteBackup(r.Context(), &buf); err != nil {
		h.logger.Error().Err(err).Msg("failed to generate backup")
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("inventory-backup-%s.json", time.Now().Format("2006-01-02"))
	serveAttachment(w, "application/json", filename, buf.Bytes())
}

// Restore replaces matching documents from an uploaded backup file.
// The upload is parsed completely before anything is written, so a
// malformed file changes nothing.
func (h *ExportHandler) Restore(w http.ResponseWriter, r *http.Request) {
	backup, err := h.service.Restore(r.Context(), r.Body, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"version":  backup.Version,
		"date":     backup.Date,
		"products": len(backup.Products),
		"logs":     len(backup.Logs),
	})
}
