package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"ridehub-api/config"
	"ridehub-api/database"
	"ridehub-api/geo"
	"ridehub-api/ingest"
	"ridehub-api/jobs"
	"ridehub-api/logging"
	"ridehub-api/middleware"
	"ridehub-api/realtime"
	"ridehub-api/repositories"
	"ridehub-api/routes"
	"ridehub-api/services"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Seed database with test data (optional - for development)
	if err := database.SeedData(db); err != nil {
		logger.Warn("failed to seed database", "error", err)
	}

	store := repositories.NewGormStore(db)

	lifecycle := services.NewRideLifecycle(store, logger)
	registry := services.NewParticipantRegistry(store, lifecycle, cfg.JoinLockWait, logger)
	aggregator := services.NewLocationAggregator(store, lifecycle, registry, cfg.FreshnessWindow, logger)
	emailService := services.NewEmailService(cfg)

	hub := realtime.NewHub(logger)
	aggregator.WithBroadcaster(hub)

	if len(cfg.KafkaBrokers) > 0 {
		producer := ingest.NewReportProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		aggregator.WithPublisher(producer)
		logger.Info("report audit trail enabled", "topic", cfg.KafkaTopic)
	}

	var index geo.Index
	if cfg.RedisAddr != "" {
		index = geo.NewRedisIndex(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		logger.Info("using redis ride discovery index", "addr", cfg.RedisAddr)
	} else {
		index = geo.NewMemoryIndex()
	}

	syncJob := jobs.NewLocatorSyncJob(store, index, 5*time.Minute, logger)
	syncJob.Start()
	defer syncJob.Stop()

	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	routes.SetupRoutes(router, routes.Deps{
		DB:           db,
		Config:       cfg,
		Store:        store,
		Lifecycle:    lifecycle,
		Registry:     registry,
		Aggregator:   aggregator,
		EmailService: emailService,
		GeoIndex:     index,
		Hub:          hub,
	})

	logger.Info("starting RideHub API server", "port", cfg.Port, "freshness_window", cfg.FreshnessWindow)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
