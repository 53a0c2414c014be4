package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/consumers"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/events"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/export"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/handler"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/report"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/repository"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/service"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/sync"
	"github.com/shelfwise/shelfwise-backend/pkg/config"
	"github.com/shelfwise/shelfwise-backend/pkg/database"
	"github.com/shelfwise/shelfwise-backend/pkg/httputil"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Each instance gets its own identity so document-change events can
	// be traced back to their origin and own events skipped on consume.
	instance := "inventory-service-" + uuid.NewString()[:8]

	var (
		products  repository.ProductStore
		logs      repository.LogStore
		db        *database.DB
		rmq       *messaging.RabbitMQ
		publisher *events.InventoryEventPublisher
		readOnly  bool
	)

	if cfg.Database.Configured() {
		// Live mode: Postgres document store plus RabbitMQ fan-out.
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		products = repository.NewPostgresProductStore(db)
		logs = repository.NewPostgresLogStore(db)

		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewInventoryEventPublisher(rmq, instance, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		// Degraded local mode: serve the cached backup read-only.
		// Writes are accepted and dropped, restore is refused.
		log.Warn().Str("cache_path", cfg.Local.CachePath).
			Msg("no database configured, running in local-only mode")

		seed := loadLocalCache(cfg.Local.CachePath, log)
		products = repository.NewLocalProductStore(seed.Products, log)
		logs = repository.NewLocalLogStore(seed.Logs, log)
		readOnly = true
	}

	hub := sync.NewHub(products, logs, log)
	if err := hub.Refresh(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load initial snapshot")
	}

	reports := report.NewGenerator(cfg.Report, log)
	inventoryService := service.NewInventoryService(products, logs, hub, publisher, reports, log, readOnly)

	// Initialize handlers
	productHandler := handler.NewProductHandler(inventoryService, log)
	lockHandler := handler.NewLockHandler(inventoryService, log)
	dashboardHandler := handler.NewDashboardHandler(inventoryService, log)
	exportHandler := handler.NewExportHandler(inventoryService, log)
	reportHandler := handler.NewReportHandler(inventoryService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if rmq != nil {
		// Other instances' writes invalidate our snapshot
		changeConsumer, err := consumers.NewChangeEventConsumer(rmq, hub, instance, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create change event consumer")
		}
		if err := changeConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start change event consumer")
		}
	}

	if cfg.Alerts.Enabled {
		scanner := service.NewAlertScanner(hub, publisher, log)
		scheduler := service.NewAlertScheduler(scanner, cfg.Alerts.Interval, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Actor)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Actor-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":  "healthy",
			"service": "inventory-service",
			"mode":    "live",
		}
		if readOnly {
			health["mode"] = "local-only"
		}
		if db != nil {
			health["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.RecordDelivery)
			r.Get("/recent", productHandler.Recent)
			r.Get("/{id}", productHandler.Get)
			r.Delete("/{id}", productHandler.Delete)
			r.Post("/{id}/batches", productHandler.AddBatch)
			r.Post("/{id}/batches/{batchID}/stock-take", productHandler.StockTake)
			r.Get("/{id}/lock", lockHandler.Status)
			r.Post("/{id}/lock", lockHandler.Acquire)
			r.Post("/{id}/lock/force", lockHandler.Force)
			r.Delete("/{id}/lock", lockHandler.Release)
		})

		r.Get("/logs", dashboardHandler.LogFeed)
		r.Get("/dashboard/stats", dashboardHandler.GetStats)
		r.Get("/stores", dashboardHandler.Stores)
		r.Get("/manufacturers", dashboardHandler.Manufacturers)

		r.Get("/export/csv", exportHandler.ExportCSV)
		r.Get("/export/pdf", exportHandler.ExportPDF)
		r.Get("/backup", exportHandler.DownloadBackup)
		r.Post("/backup/restore", exportHandler.Restore)

		r.Get("/report", reportHandler.Generate)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Str("instance", instance).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers and schedulers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// loadLocalCache reads the backup file that seeds local-only mode.
// A missing or unreadable file starts the service empty rather than
// refusing to start: an empty read-only tracker is still useful.
func loadLocalCache(path string, log *logger.Logger) *export.Backup {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("local cache not readable, starting empty")
		return export.NewBackup(nil, nil, time.Now().UTC())
	}
	defer f.Close()

	backup, err := export.ParseBackup(f)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("local cache invalid, starting empty")
		return export.NewBackup(nil, nil, time.Now().UTC())
	}

	log.Info().Int("products", len(backup.Products)).Int("logs", len(backup.Logs)).
		Msg("loaded local cache")
	return backup
}
