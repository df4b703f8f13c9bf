package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/parkscope/analysis-api/configs"
	"github.com/parkscope/analysis-api/internal/application/services"
	"github.com/parkscope/analysis-api/internal/core/ports"
	"github.com/parkscope/analysis-api/internal/infrastructure/db"
	"github.com/parkscope/analysis-api/internal/infrastructure/email"
	"github.com/parkscope/analysis-api/internal/infrastructure/health"
	"github.com/parkscope/analysis-api/internal/infrastructure/httpserver"
	"github.com/parkscope/analysis-api/internal/infrastructure/inference"
	"github.com/parkscope/analysis-api/internal/infrastructure/localcache"
	"github.com/parkscope/analysis-api/internal/infrastructure/redis"
	"github.com/parkscope/analysis-api/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting image analysis API...")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// The shared key-value store backing counters, blocks and cache entries
	kvStore := redis.NewKVStore(redisClient)

	// Optional local read-through layer for the immutable cache records
	var cacheStore ports.KeyValueStore = kvStore
	if cfg.Cache.Local {
		local, err := localcache.New(kvStore, cfg.Cache.LocalTTL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize local cache layer:", err)
		}
		cacheStore = local
		logger.Info("Local cache layer enabled")
	}

	// Optional usage audit trail
	var usageRepo ports.UsageRepository
	var database *db.Database
	if cfg.Database.Enabled {
		database, err = db.NewDatabaseWithConfig(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database:", err)
		}
		defer database.Close()

		if err := database.Migrate("./migrations"); err != nil {
			logger.Warn("Failed to run migrations:", err)
		}
		usageRepo = repositories.NewUsageRepository(database, logger)
		logger.Info("Usage tracking enabled")
	}

	// Optional abuse alerts
	var alerts ports.AlertNotifier
	if cfg.Alert.SendGridAPIKey != "" && cfg.Alert.OperatorEmail != "" {
		alertConfig := &email.AlertConfig{
			SendGridAPIKey: cfg.Alert.SendGridAPIKey,
			FromEmail:      cfg.Alert.FromEmail,
			FromName:       cfg.Alert.FromName,
			OperatorEmail:  cfg.Alert.OperatorEmail,
		}
		alerts, err = email.NewAlertService(alertConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize alert service:", err)
		}
		logger.Info("Abuse alerts enabled")
	}

	inferenceClient := inference.NewClient(inference.Config{
		URL:         cfg.Inference.URL,
		Timeout:     cfg.Inference.Timeout,
		MaxRetries:  cfg.Inference.MaxRetries,
		BackoffBase: cfg.Inference.BackoffBase,
	}, logger)

	// Wire services
	rateLimiterConfig := &services.RateLimiterConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		BlockDuration:     cfg.RateLimit.BlockDuration,
		KeyPrefix:         cfg.RateLimit.KeyPrefix,
	}
	rateLimiter := services.NewRateLimiterService(kvStore, alerts, rateLimiterConfig, logger)
	contentCache := services.NewContentCacheService(cacheStore, cfg.Cache.KeyPrefix, logger)
	analysisService := services.NewAnalysisService(contentCache, inferenceClient, usageRepo, cfg.Cache.TTL, logger)

	healthCheckers := []ports.HealthChecker{
		health.NewRedisHealthChecker(redisClient),
		health.NewInferenceHealthChecker(inferenceClient),
	}
	if database != nil {
		healthCheckers = append(healthCheckers, health.NewDBHealthChecker(database))
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		TLSCertFile:       cfg.Server.TLSCertFile,
		TLSKeyFile:        cfg.Server.TLSKeyFile,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		AdminAPIKeyHash:   cfg.Admin.APIKeyHash,
		AdminJWTSecret:    cfg.Admin.JWTSecret,
		UsagePreviewLimit: cfg.Admin.UsageLimit,
		CachePreviewLimit: cfg.Cache.PreviewLimit,
	}

	deps := httpserver.ServerDeps{
		AnalysisService:    analysisService,
		ContentCache:       contentCache,
		RateLimiterService: rateLimiter,
		UsageRepository:    usageRepo,
		HealthCheckers:     healthCheckers,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
