package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidwatch/bid-api/internal/auth"
	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/database"
	"github.com/bidwatch/bid-api/internal/http/handler"
	"github.com/bidwatch/bid-api/internal/http/middleware"

	_ "github.com/bidwatch/bid-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	bidHandler          *handler.BidHandler
	documentHandler     *handler.DocumentHandler
	dashboardHandler    *handler.DashboardHandler
	notificationHandler *handler.NotificationHandler
	userHandler         *handler.UserHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	bidHandler *handler.BidHandler,
	documentHandler *handler.DocumentHandler,
	dashboardHandler *handler.DashboardHandler,
	notificationHandler *handler.NotificationHandler,
	userHandler *handler.UserHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		bidHandler:          bidHandler,
		documentHandler:     documentHandler,
		dashboardHandler:    dashboardHandler,
		notificationHandler: notificationHandler,
		userHandler:         userHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)

		// Bids
		r.Route("/bids", func(r chi.Router) {
			r.Get("/", rt.bidHandler.List)
			r.Post("/", rt.bidHandler.Create)
			r.Get("/search", rt.bidHandler.Search)
			r.Get("/due-soon", rt.bidHandler.GetDueSoon)
			r.Get("/activity", rt.bidHandler.GetRecentActivity)
			r.Get("/stages", rt.bidHandler.GetStageRegistry)
			r.Get("/active-stages", rt.bidHandler.GetActiveStages)
			r.Get("/{id}", rt.bidHandler.GetByID)
			r.Put("/{id}", rt.bidHandler.Update)

			// Lifecycle endpoints
			r.Post("/{id}/stage", rt.bidHandler.TransitionStage)
			r.Post("/{id}/status", rt.bidHandler.SetStatus)

			// Sub-resources
			r.Get("/{id}/stages", rt.bidHandler.GetStageIntervals)
			r.Get("/{id}/history", rt.bidHandler.GetAuditTrail)
			r.Get("/{id}/documents", rt.documentHandler.ListByBid)
			r.Post("/{id}/documents", rt.documentHandler.Upload)
		})

		// Documents
		r.Route("/documents", func(r chi.Router) {
			r.Get("/{documentId}/download", rt.documentHandler.Download)
			r.Delete("/{documentId}", rt.documentHandler.Delete)
		})

		// Dashboard
		r.Get("/dashboard/metrics", rt.dashboardHandler.GetMetrics)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notificationHandler.List)
			r.Get("/count", rt.notificationHandler.GetUnreadCount)
			r.Put("/read-all", rt.notificationHandler.MarkAllAsRead)
			r.Put("/{id}/read", rt.notificationHandler.MarkAsRead)
		})

		// Users (admin only)
		r.Route("/users", func(r chi.Router) {
			r.Get("/", rt.userHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Post("/", rt.userHandler.Create)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Put("/{id}/role", rt.userHandler.UpdateRole)
				r.Delete("/{id}", rt.userHandler.Delete)
			})
		})
	})

	return r
}
