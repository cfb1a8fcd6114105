package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/cache"
	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/http/fiber/handlers"
	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/http/fiber/middleware"
	s3adapter "github.com/cloudpulse/telemetry-pipeline/internal/adapter/storage/s3"
	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/vault"
	"github.com/cloudpulse/telemetry-pipeline/internal/observability/telemetry"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
	"github.com/cloudpulse/telemetry-pipeline/internal/service/aggregation"
	"github.com/cloudpulse/telemetry-pipeline/internal/service/scheduler"
	"github.com/cloudpulse/telemetry-pipeline/pkg/config"
)

const (
	serviceName    = "cloudpulse-aggregator"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting CloudPulse Aggregator",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve Object Store Credentials (Vault, falling back to config)
	s3cfg := s3adapter.Config{
		Endpoint:        cfg.Storage.S3.Endpoint,
		Region:          cfg.Storage.S3.Region,
		Bucket:          cfg.Storage.S3.Bucket,
		AccessKeyID:     cfg.Storage.S3.AccessKeyID,
		SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		UsePathStyle:    cfg.Storage.S3.UsePathStyle,
	}
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to connect to Vault", zap.Error(err))
		}
		accessKey, secretKey, err := secrets.GetObjectStoreCredentials()
		if err != nil {
			logger.Fatal("Failed to read object store credentials from Vault", zap.Error(err))
		}
		s3cfg.AccessKeyID = accessKey
		s3cfg.SecretAccessKey = secretKey
		logger.Info("Loaded object store credentials from Vault")
	}

	// 5. Initialize Object Store
	s3client, err := s3adapter.NewClient(context.Background(), s3cfg)
	if err != nil {
		logger.Fatal("Failed to build S3 client", zap.Error(err))
	}
	store := s3adapter.NewObjectStore(s3client, s3cfg.Bucket, logger)

	// 6. Initialize Checkpoint Cache (Redis, local fallback)
	var checkpoints ports.Cache
	checkpoints, err = cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process checkpoint cache", zap.Error(err))
		checkpoints = cache.NewLocalCache(time.Minute, logger)
	}
	defer checkpoints.Close()

	// 7. Initialize Aggregation Engine
	engine := aggregation.NewEngine(store, aggregation.Options{
		Workers:         cfg.Aggregation.Workers,
		ZScoreThreshold: cfg.Aggregation.ZScoreThreshold,
	}, logger)

	// 8. Start Scheduler
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	sched := scheduler.New(engine, checkpoints, cfg.Aggregation.Interval, logger)
	go sched.Start(schedCtx)

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	// Health Check Endpoints
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := checkpoints.Ping(); err != nil {
			return c.Status(503).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// API v1 Routes
	v1 := app.Group("/api/v1")
	aggHandler := handlers.NewAggregationHandler(engine, logger)
	v1.Post("/aggregate", aggHandler.Trigger)
	v1.Get("/runs/latest", aggHandler.LatestRun)

	// 10. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down aggregator...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Aggregator exited gracefully")
}
