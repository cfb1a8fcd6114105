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

	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/http/fiber/middleware"
	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/queue"
	s3adapter "github.com/cloudpulse/telemetry-pipeline/internal/adapter/storage/s3"
	"github.com/cloudpulse/telemetry-pipeline/internal/adapter/vault"
	"github.com/cloudpulse/telemetry-pipeline/internal/service/ingest"
	"github.com/cloudpulse/telemetry-pipeline/pkg/config"
)

const (
	serviceName    = "cloudpulse-ingestor"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting CloudPulse Ingestor",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Resolve Object Store Credentials (Vault, falling back to config)
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

	// 4. Initialize Object Store
	s3client, err := s3adapter.NewClient(context.Background(), s3cfg)
	if err != nil {
		logger.Fatal("Failed to build S3 client", zap.Error(err))
	}
	store := s3adapter.NewObjectStore(s3client, s3cfg.Bucket, logger)

	// 5. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 6. Initialize Ingest Service and Subscribe
	ingestService := ingest.NewService(store, logger)
	err = messageQueue.Subscribe(cfg.Queue.Subject, func(data []byte) error {
		_, err := ingestService.ProcessRecord(context.Background(), data)
		return err
	})
	if err != nil {
		logger.Fatal("Failed to subscribe to telemetry subject", zap.Error(err))
	}
	logger.Info("Consuming telemetry readings",
		zap.String("driver", cfg.Queue.Driver),
		zap.String("subject", cfg.Queue.Subject),
	)

	// 7. Initialize Fiber HTTP Server (health and metrics only)
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down ingestor...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Ingestor exited gracefully")
}
