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

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/state"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	instanceID := uuid.New().String()
	logger.Info("Starting storefront", zap.String("instance_id", instanceID))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	seed, err := store.LoadSeed(cfg.Storage.SeedFile)
	if err != nil {
		logger.Fatal("Failed to load seed data", zap.Error(err))
	}

	readiness := map[string]api.ReadinessCheck{}

	var repo store.Repository
	switch cfg.Storage.Backend {
	case "memory":
		repo = store.NewMemoryStore(seed)
		logger.Info("Using in-memory store")
	case "postgres":
		db, err := store.NewPostgresStore(cfg.Storage.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		seeded, err := db.SeedIfEmpty(context.Background(), seed)
		if err != nil {
			logger.Fatal("Failed to seed database", zap.Error(err))
		}
		logger.Info("Database connected", zap.Bool("seeded", seeded))

		repo = db
		readiness["postgres"] = db.Ping
	default:
		logger.Fatal("Unknown storage backend", zap.String("backend", cfg.Storage.Backend))
	}

	var cache worker.Invalidator
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected")

		cached := store.NewCachedStore(repo, redisClient, cfg.Redis.CacheTTL)
		repo = cached
		cache = cached
		readiness["redis"] = redisClient.Ping
	}

	opts := []service.Option{service.WithLatency(cfg.Business.MockLatency)}
	if cfg.Business.FaultRate > 0 {
		opts = append(opts, service.WithFaults(service.RandomFaults(cfg.Business.FaultRate, time.Now().UnixNano())))
		logger.Warn("Fault injection enabled", zap.Float64("rate", cfg.Business.FaultRate))
	}

	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		logger.Info("Kafka producer initialized")

		opts = append(opts, service.WithEvents(broker.NewEventPublisher(producer), instanceID))
	}

	dataService := service.NewDataService(repo, opts...)
	container := state.New(dataService, state.WithNotificationTTL(cfg.Business.NotificationTTL))

	go func() {
		if err := container.Load(context.Background()); err != nil {
			logger.Warn("Initial load failed", zap.Error(err))
		}
	}()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var syncWorker *worker.SyncWorker
	if cfg.Kafka.Enabled {
		// Every instance needs every event, so each gets its own group.
		group := cfg.Kafka.ConsumerGroup + "-" + instanceID
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, group)
		syncWorker = worker.NewSyncWorker(consumer, instanceID, cache, container)
		go func() {
			if err := syncWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Sync worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(container)
	for name, check := range readiness {
		handler.AddReadinessCheck(name, check)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if syncWorker != nil {
		if err := syncWorker.Stop(); err != nil {
			logger.Warn("Error stopping sync worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
