package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/handler"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/report"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/repository"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/sync"
	"github.com/shelfwise/shelfwise-backend/pkg/config"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	log := logger.New("test", "test")

	products := repository.NewMemoryProductStore(nil)
	logs := repository.NewMemoryLogStore(nil)
	hub := sync.NewHub(products, logs, log)
	require.NoError(t, hub.Refresh(context.Background()))

	gen := report.NewGenerator(config.ReportConfig{Timeout: time.Second}, log)
	svc := service.NewInventoryService(products, logs, hub, nil, gen, log, false)

	productHandler := handler.NewProductHandler(svc, log)
	lockHandler := handler.NewLockHandler(svc, log)
	exportHandler := handler.NewExportHandler(svc, log)
	reportHandler := handler.NewReportHandler(svc, log)
	dashboardHandler := handler.NewDashboardHandler(svc, log)

	r := chi.NewRouter()
	r.Use(httputil.Actor)
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.RecordDelivery)
			r.Get("/{id}", productHandler.Get)
			r.Delete("/{id}", productHandler.Delete)
			r.Post("/{id}/batches", productHandler.AddBatch)
			r.Post("/{id}/batches/{batchID}/stock-take", productHandler.StockTake)
			r.Post("/{id}/lock", lockHandler.Acquire)
			r.Delete("/{id}/lock", lockHandler.Release)
			r.Post("/{id}/lock/force", lockHandler.Force)
			r.Get("/{id}/lock", lockHandler.Status)
		})
		r.Get("/logs", dashboardHandler.LogFeed)
		r.Get("/export/csv", exportHandler.ExportCSV)
		r.Post("/backup/restore", exportHandler.Restore)
		r.Get("/report", reportHandler.Generate)
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, actorID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const deliveryBody = `{
	"name": "Flour T500",
	"plu": "4001",
	"unit": "KG",
	"batch": {
		"store": "Metro",
		"manufacturer": "Mlin",
		"price_no_vat": "1.20",
		"expiration_date": "2026-12-31",
		"quantity": 25
	}
}`

func TestRecordDeliveryAndList(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/", "user_001", deliveryBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]interface{})
	product := data["product"].(map[string]interface{})
	assert.Equal(t, "Flour T500", product["name"])
	entry := data["log"].(map[string]interface{})
	assert.Equal(t, "CREATE", entry["type"])
	assert.Equal(t, "user_001", entry["actor_id"])

	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory/products/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	assert.EqualValues(t, 1, resp["meta"].(map[string]interface{})["total"])
	listed := resp["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "4001", listed["plu"])
	assert.NotEmpty(t, listed["total_stock"])
}

func TestRecordDeliveryValidation(t *testing.T) {
	r := newTestRouter(t)

	// expiration date is mandatory on intake
	body := `{"name":"Milk","unit":"L","batch":{"quantity":5}}`
	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/", "user_001", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	errBody := resp["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	assert.Contains(t, errBody["details"].(map[string]interface{}), "ExpirationDate")
}

func TestStockTakeEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/", "user_001", deliveryBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]interface{})
	product := data["product"].(map[string]interface{})
	productID := product["id"].(string)
	batchID := product["batches"].([]interface{})[0].(map[string]interface{})["id"].(string)

	rec = doJSON(t, r, http.MethodPost,
		"/api/v1/inventory/products/"+productID+"/batches/"+batchID+"/stock-take",
		"user_002", `{"actual_count": 20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entry := decodeResponse(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "STOCK_TAKE", entry["type"])
	assert.Equal(t, "user_002", entry["actor_id"])

	// missing count is a validation error, not a zero count
	rec = doJSON(t, r, http.MethodPost,
		"/api/v1/inventory/products/"+productID+"/batches/"+batchID+"/stock-take",
		"user_002", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLockEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/", "user_001", deliveryBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]interface{})
	productID := data["product"].(map[string]interface{})["id"].(string)

	// lock operations refuse anonymous callers
	rec = doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/"+productID+"/lock", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/"+productID+"/lock", "user_001", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// a live foreign lock is a conflict with the holder in the details
	rec = doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/"+productID+"/lock", "user_002", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeResponse(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "user_001", errBody["details"].(map[string]interface{})["locked_by"])

	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory/products/"+productID+"/lock", "user_002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeResponse(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "held_by_other", status["state"])

	// takeover, then release
	rec = doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/"+productID+"/lock/force", "user_002", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/inventory/products/"+productID+"/lock", "user_002", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportCSVEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/products/", "user_001", deliveryBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory/export/csv", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,PLU,TotalStock,Unit,TotalValue", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Flour T500")
}

func TestRestoreRejectsMalformedUpload(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/backup/restore", "user_001", `{"version": 99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// nothing was applied
	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory/products/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Empty(t, resp["data"])
}

func TestReportEndpointFallsBackWithoutKey(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/inventory/report", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, report.FallbackNotConfigured, data["report"])
}
