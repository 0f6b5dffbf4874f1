package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	budgetingapp "github.com/finstack/backend/internal/application/budgeting"
	crmapp "github.com/finstack/backend/internal/application/crm"
	invoicingapp "github.com/finstack/backend/internal/application/invoicing"
	"github.com/finstack/backend/internal/infrastructure/cache"
	"github.com/finstack/backend/internal/infrastructure/config"
	"github.com/finstack/backend/internal/infrastructure/event"
	"github.com/finstack/backend/internal/infrastructure/logger"
	"github.com/finstack/backend/internal/infrastructure/persistence"
	"github.com/finstack/backend/internal/infrastructure/scheduler"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/finstack/backend/internal/interfaces/http/handler"
	"github.com/finstack/backend/internal/interfaces/http/middleware"
	"github.com/finstack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FinStack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize telemetry providers
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Database query tracing (otelgorm)
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	recurringRepo := persistence.NewGormRecurringInvoiceRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	scanSource := persistence.NewGormRecurringScanSource(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Initialize application services
	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, paymentRepo, txManager)
	recurringService := invoicingapp.NewRecurringInvoiceService(recurringRepo, txManager)
	budgetService := budgetingapp.NewBudgetService(budgetRepo, expenseRepo, txManager)
	expenseService := budgetingapp.NewExpenseService(expenseRepo, budgetRepo, txManager)
	clientService := crmapp.NewClientService(clientRepo, txManager)

	// Business metrics over the recalculation pipeline
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             meterProvider.Meter("finstack.business"),
			Logger:            log,
			RecurringProvider: scanSource,
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		defer businessMetrics.Stop()

		invoiceService.SetMetrics(businessMetrics)
		recurringService.SetMetrics(businessMetrics)
		budgetService.SetMetrics(businessMetrics)
		expenseService.SetMetrics(businessMetrics)
	}

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Invoice lifecycle events -> client activity tracking. Wrapped in an
	// idempotency guard so redelivered events do not double-touch clients.
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	invoiceActivityHandler := crmapp.NewInvoiceActivityHandler(clientService, log)
	eventBus.Subscribe(event.NewIdempotentHandler(invoiceActivityHandler, idempotencyStore, log))
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	log.Info("Event handlers registered",
		zap.Strings("invoice_activity_events", invoiceActivityHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	invoiceService.SetEventPublisher(eventBus)
	recurringService.SetEventPublisher(eventBus)
	budgetService.SetEventPublisher(eventBus)
	expenseService.SetEventPublisher(eventBus)
	clientService.SetEventPublisher(eventBus)
	clientService.SetIdempotencyStore(idempotencyStore)

	// Initialize the recurring invoice generation scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewGenerationExecutor(recurringService, log)
		genScheduler, err := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig(), executor, log)
		if err != nil {
			log.Fatal("Failed to create generation scheduler", zap.Error(err))
		}
		if err := genScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start generation scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := genScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping generation scheduler", zap.Error(err))
			}
		}()

		triggerConfig := scheduler.DefaultScanTriggerConfig()
		if cfg.Scheduler.ScanInterval > 0 {
			triggerConfig.ScanInterval = cfg.Scheduler.ScanInterval
		}
		if cfg.Scheduler.BatchSize > 0 {
			triggerConfig.BatchSize = cfg.Scheduler.BatchSize
		}
		scanTrigger, err := scheduler.NewScanTrigger(triggerConfig, genScheduler, recurringService, scanSource, log)
		if err != nil {
			log.Fatal("Failed to create scan trigger", zap.Error(err))
		}
		if err := scanTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scan trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := scanTrigger.Stop(stopCtx); err != nil {
				log.Error("Error stopping scan trigger", zap.Error(err))
			}
		}()

		log.Info("Generation scheduler started",
			zap.Duration("scan_interval", triggerConfig.ScanInterval),
			zap.Int("batch_size", triggerConfig.BatchSize),
		)
	}

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	recurringHandler := handler.NewRecurringInvoiceHandler(recurringService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	clientHandler := handler.NewClientHandler(clientService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Request tracing and metrics
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	// Tenant resolution for all API routes
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(systemHandler).
		Register(invoiceHandler).
		Register(recurringHandler).
		Register(budgetHandler).
		Register(expenseHandler).
		Register(clientHandler).
		Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
