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

	"github.com/grupovitta/backoffice-api/docs"
	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/carrier"
	"github.com/grupovitta/backoffice-api/internal/config"
	"github.com/grupovitta/backoffice-api/internal/database"
	"github.com/grupovitta/backoffice-api/internal/http/handler"
	"github.com/grupovitta/backoffice-api/internal/http/middleware"
	"github.com/grupovitta/backoffice-api/internal/http/router"
	"github.com/grupovitta/backoffice-api/internal/jobs"
	"github.com/grupovitta/backoffice-api/internal/logger"
	"github.com/grupovitta/backoffice-api/internal/loyalty"
	"github.com/grupovitta/backoffice-api/internal/repository"
	"github.com/grupovitta/backoffice-api/internal/service"
	"github.com/grupovitta/backoffice-api/internal/storage"
)

// @title Grupo Vitta Backoffice API
// @version 1.0
// @description Insurance contract lifecycle and carrier integration API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email suporte@grupovitta.com.br

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
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
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "backoffice-staging.grupovitta.com.br"
	case "production":
		docs.SwaggerInfo.Host = "backoffice.grupovitta.com.br"
	default:
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

	// Initialize the carrier payload archive
	payloadArchive, err := storage.NewArchive(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize payload archive: %w", err)
	}
	log.Info("Payload archive initialized", zap.String("mode", cfg.Storage.Mode))

	// Carrier gateway
	gateway := carrier.NewClient(&cfg.Carrier, log)
	if cfg.Carrier.Endpoint == "" {
		log.Warn("Carrier endpoint not configured, policy issuance will fail until it is set")
	}

	// Loyalty client is optional; nil disables loyalty movements
	loyaltyClient := loyalty.NewClient(&cfg.Loyalty, log)
	if loyaltyClient == nil {
		log.Info("Loyalty integration disabled")
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	contractRepo := repository.NewContractRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize services
	eventService := service.NewEventService(eventRepo, log)
	clientService := service.NewClientService(clientRepo, log)
	productService := service.NewProductService(productRepo, log)
	contractService := service.NewContractService(
		contractRepo,
		clientRepo,
		productRepo,
		eventService,
		gateway,
		loyaltyClient,
		payloadArchive,
		&cfg.Carrier,
		&cfg.Loyalty,
		log,
	)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(log)
	clientHandler := handler.NewClientHandler(clientService, log)
	productHandler := handler.NewProductHandler(productService, log)
	contractHandler := handler.NewContractHandler(contractService, log)
	eventHandler := handler.NewEventHandler(eventService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		clientHandler,
		productHandler,
		contractHandler,
		eventHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ExpirySweepEnabled {
		scheduler = jobs.NewScheduler(log)
		sweepJob := jobs.NewExpirySweepJob(contractService, log, jobs.DefaultSweepTimeout)
		if err := sweepJob.Register(scheduler, cfg.Jobs.ExpirySweepSchedule); err != nil {
			log.Error("Failed to register coverage expiry sweep", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with coverage expiry sweep",
				zap.String("cron_expr", cfg.Jobs.ExpirySweepSchedule),
			)
		}
	} else {
		log.Info("Coverage expiry sweep disabled")
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

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

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
