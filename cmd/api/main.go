package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/config"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/events"
	httpDelivery "github.com/ovenbird/cakeshop-reviews/internal/delivery/http"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/handler"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	pkgcache "github.com/ovenbird/cakeshop-reviews/internal/pkg/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/database"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
	"github.com/ovenbird/cakeshop-reviews/internal/store/postgres"
	"github.com/ovenbird/cakeshop-reviews/internal/store/rest"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/eligibility"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/rating"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/review"

	_ "github.com/ovenbird/cakeshop-reviews/docs"
)

// @title Cake Shop Reviews API
// @version 1.0
// @description Product review and rating service for the cake shop: cached rating summaries, bulk rating lookups and purchase-based review eligibility.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/ovenbird/cakeshop-reviews
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @tag.name Reviews
// @tag.description Review submission and listing endpoints

// @tag.name Ratings
// @tag.description Rating summary and bulk rating endpoints

// @tag.name Bills
// @tag.description Review eligibility endpoints

// @tag.name Cache
// @tag.description Cache administration endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Cake Shop Reviews API...")

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)

	appLogger.Info("Connecting to Redis...")
	redisClient, err := pkgcache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	streamConfig := events.NewStreamConfig(publisher.JetStream(), appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	var store domain.ReviewStore
	switch cfg.Store.Backend {
	case "postgres":
		appLogger.Info("Connecting to PostgreSQL...")
		db, err := database.WaitForDB(cfg, 10, 2*time.Second)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", err)
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL successfully")
		store = postgres.NewStore(db)
	case "rest":
		store = rest.NewClient(cfg.Store, appMetrics, appLogger)
		appLogger.Infof("Using REST review store at %s", cfg.Store.BaseURL)
	default:
		appLogger.Fatal("Unknown store backend", fmt.Errorf("STORE_BACKEND=%q", cfg.Store.Backend))
	}

	bus := cache.NewBus()
	reviewCache := cache.NewReviewCache(cfg.Cache.ReviewsTTL, cfg.Cache.SnapshotTTL, bus, appMetrics, nil)
	batchCache := cache.NewBatchRatingCache(cfg.Cache.BatchRatingTTL, bus, appMetrics, nil)
	billStatusCache := cache.NewBillStatusCache(redisClient, bus, appMetrics, appLogger)

	// Reviews written on other instances invalidate this instance's tiers.
	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()
	if err := consumer.SubscribeInvalidations(bus); err != nil {
		appLogger.Fatal("Failed to subscribe to invalidations", err)
	}

	reviewService := review.NewService(store, reviewCache, bus, publisher, appMetrics, appLogger, cfg.Store.Timeout, nil)
	ratingService := rating.NewService(store, batchCache, appLogger, cfg.Store.Timeout, cfg.Batch.ChunkSize, cfg.Batch.YieldInterval, nil)
	eligibilityService := eligibility.NewService(store, billStatusCache, appLogger, cfg.Store.Timeout)

	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)
	ratingHandler := handler.NewRatingHandler(ratingService, appLogger)
	billHandler := handler.NewBillHandler(eligibilityService, appLogger)

	router := httpDelivery.NewRouter(reviewHandler, ratingHandler, billHandler, registry, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
