package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/docs"
	"github.com/bidwatch/bid-api/internal/auth"
	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/database"
	"github.com/bidwatch/bid-api/internal/events"
	"github.com/bidwatch/bid-api/internal/http/handler"
	"github.com/bidwatch/bid-api/internal/http/middleware"
	"github.com/bidwatch/bid-api/internal/http/router"
	"github.com/bidwatch/bid-api/internal/jobs"
	"github.com/bidwatch/bid-api/internal/logger"
	"github.com/bidwatch/bid-api/internal/repository"
	"github.com/bidwatch/bid-api/internal/service"
	"github.com/bidwatch/bid-api/internal/storage"
)

// @title BidWatch API
// @version 1.0
// @description Sales bid lifecycle tracking API with stage timelines, audit history, and owner notifications

// @contact.name API Support
// @contact.email support@bidwatch.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	docStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	bidRepo := repository.NewBidRepository(db)
	stageRepo := repository.NewStageIntervalRepository(db)
	histRepo := repository.NewHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// In-process event bus carries stage transitions to subscribers
	bus := events.NewBus(log)

	// Initialize services
	bidService := service.NewBidService(bidRepo, stageRepo, histRepo, bus, &cfg.Reminders, log, db)
	userService := service.NewUserService(userRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	notificationService.Subscribe(bus)
	dashboardService := service.NewDashboardService(bidRepo, &cfg.Reminders, log)
	documentService := service.NewDocumentService(documentRepo, bidRepo, histRepo, docStorage, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	bidHandler := handler.NewBidHandler(bidService, log)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	userHandler := handler.NewUserHandler(userService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		bidHandler,
		documentHandler,
		dashboardHandler,
		notificationHandler,
		userHandler,
	)

	// Start scheduler with the notification retention job
	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterRetentionJob(
		scheduler,
		notificationService,
		cfg.Reminders.NotificationRetentionDays,
		log,
		cfg.Reminders.RetentionSchedule,
		5*time.Minute,
	); err != nil {
		log.Error("Failed to register retention job", zap.Error(err))
	} else {
		scheduler.Start()
		log.Info("Scheduler started with retention job",
			zap.String("cron_expr", cfg.Reminders.RetentionSchedule),
			zap.Int("retention_days", cfg.Reminders.NotificationRetentionDays),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler, running jobs complete first
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
