package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/pkg/actor"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// ProductHandler handles product and stock transaction endpoints
type ProductHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.InventoryService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// BatchRequest is the wire form of a delivered batch.
type BatchRequest struct {
	EAN            string          `json:"ean"`
	Manufacturer   string          `json:"manufacturer"`
	Store          string          `json:"store"`
	PriceNoVAT     decimal.Decimal `json:"price_no_vat"`
	ExpirationDate string          `json:"expiration_date" validate:"required,datetime=2006-01-02"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// ToInput converts the request into a service input.
func (b *BatchRequest) ToInput() (service.BatchInput, error) {
	in := service.BatchInput{
		EAN:          b.EAN,
		Manufacturer: b.Manufacturer,
		Store:        b.Store,
		PriceNoVAT:   b.PriceNoVAT,
		Quantity:     b.Quantity,
	}
	exp, err := time.Parse("2006-01-02", b.ExpirationDate)
	if err != nil {
		return in, errors.BadRequest("expiration_date must be a date in format 2006-01-02")
	}
	in.ExpirationDate = &exp
	return in, nil
}

// DeliveryRequest records an incoming delivery, creating the product if
// no existing one matches by PLU or name.
type DeliveryRequest struct {
	Name  string       `json:"name" validate:"required"`
	PLU   string       `json:"plu"`
	Unit  string       `json:"unit" validate:"required"`
	Batch BatchRequest `json:"batch"`
}

// StockTakeRequest replaces a batch count with a physically counted value.
type StockTakeRequest struct {
	ActualCount *decimal.Decimal `json:"actual_count" validate:"required"`
}

// List lists all products with derived stock figures.
// An optional ?q= filters by name, PLU or EAN substring.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var (
		products []*service.EnrichedProduct
		err      error
	)
	if query != "" {
		products, err = h.service.SearchProducts(r.Context(), query)
	} else {
		products, err = h.service.ListProducts(r.Context())
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, &httputil.Meta{Total: len(products)})
}

// Recent lists the most recently updated products
func (h *ProductHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	products, err := h.service.RecentProducts(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// RecordDelivery books an incoming delivery
func (h *ProductHandler) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := req.Batch.ToInput()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, entry, err := h.service.RecordDelivery(r.Context(), service.DeliveryInput{
		Name:    req.Name,
		PLU:     req.PLU,
		Unit:    req.Unit,
		Batch:   batch,
		ActorID: actor.FromContext(r.Context()),
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"product": product,
		"log":     entry,
	})
}

// AddBatch books a delivery against an explicitly chosen product
func (h *ProductHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req BatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := req.ToInput()
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, entry, err := h.service.AddBatch(r.Context(), id, batch, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"product": product,
		"log":     entry,
	})
}

// StockTake records a physical count for one batch
func (h *ProductHandler) StockTake(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	batchID := chi.URLParam(r, "batchID")

	var req StockTakeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.service.RecordStockTake(r.Context(), productID, batchID, *req.ActualCount, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id, actor.FromContext(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
