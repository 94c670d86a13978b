package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/config"
	"github.com/grupovitta/backoffice-api/internal/database"
	"github.com/grupovitta/backoffice-api/internal/domain"
	"github.com/grupovitta/backoffice-api/internal/http/handler"
	"github.com/grupovitta/backoffice-api/internal/http/middleware"

	_ "github.com/grupovitta/backoffice-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	authHandler     *handler.AuthHandler
	clientHandler   *handler.ClientHandler
	productHandler  *handler.ProductHandler
	contractHandler *handler.ContractHandler
	eventHandler    *handler.EventHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	clientHandler *handler.ClientHandler,
	productHandler *handler.ProductHandler,
	contractHandler *handler.ContractHandler,
	eventHandler *handler.EventHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		authHandler:     authHandler,
		clientHandler:   clientHandler,
		productHandler:  productHandler,
		contractHandler: contractHandler,
		eventHandler:    eventHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
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
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

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
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)

			// Clients
			r.Route("/clients", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionClientsRead)).
					Get("/", rt.clientHandler.List)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionClientsWrite)).
					Post("/", rt.clientHandler.Create)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionClientsRead)).
					Get("/{id}", rt.clientHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionClientsWrite)).
					Put("/{id}", rt.clientHandler.Update)
			})

			// Products
			r.Route("/products", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProductsRead)).
					Get("/", rt.productHandler.List)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProductsWrite)).
					Post("/", rt.productHandler.Create)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProductsRead)).
					Get("/{id}", rt.productHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionProductsWrite)).
					Put("/{id}", rt.productHandler.Update)
			})

			// Contracts
			r.Route("/contracts", func(r chi.Router) {
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsRead)).
					Get("/", rt.contractHandler.List)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsWrite)).
					Post("/", rt.contractHandler.Create)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsRead)).
					Get("/{id}", rt.contractHandler.GetByID)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsWrite)).
					Put("/{id}", rt.contractHandler.Update)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsCancel)).
					Post("/{id}/cancel", rt.contractHandler.Cancel)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsTrash)).
					Post("/{id}/trash", rt.contractHandler.Trash)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsTrash)).
					Post("/{id}/restore", rt.contractHandler.Restore)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionContractsForceDelete)).
					Delete("/{id}", rt.contractHandler.ForceDelete)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionEventsRead)).
					Get("/{id}/events", rt.contractHandler.GetEvents)
			})

			// Events
			r.With(rt.authMiddleware.RequirePermission(domain.PermissionEventsRead)).
				Get("/events", rt.eventHandler.ListRecent)
		})
	})

	return r
}
