package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ordercore/notification-orchestrator/internal/channel"
	"github.com/ordercore/notification-orchestrator/internal/config"
	"github.com/ordercore/notification-orchestrator/internal/domain"
	"github.com/ordercore/notification-orchestrator/internal/enrichment"
	"github.com/ordercore/notification-orchestrator/internal/handler"
	"github.com/ordercore/notification-orchestrator/internal/infra/postgresql"
	"github.com/ordercore/notification-orchestrator/internal/infra/postgresql/migrations"
	infraredis "github.com/ordercore/notification-orchestrator/internal/infra/redis"
	"github.com/ordercore/notification-orchestrator/internal/ingest"
	"github.com/ordercore/notification-orchestrator/internal/observability"
	"github.com/ordercore/notification-orchestrator/internal/repository"
	"github.com/ordercore/notification-orchestrator/internal/resilience"
	"github.com/ordercore/notification-orchestrator/internal/service"
	"github.com/ordercore/notification-orchestrator/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	policies := resilience.NewRegistry(resilience.Config{
		MaxAttempts:      cfg.RetryMaxAttempts,
		FailureRatio:     cfg.BreakerFailureRatio,
		WindowSize:       cfg.BreakerWindowSize,
		MinCalls:         cfg.BreakerMinCalls,
		Cooldown:         time.Duration(cfg.BreakerCooldownMS) * time.Millisecond,
		BulkheadCapacity: cfg.BulkheadCapacity,
		BulkheadWait:     time.Duration(cfg.BulkheadWaitMS) * time.Millisecond,
	}, limiter, logger)

	resolver, err := buildResolver(cfg, logger, metrics)
	if err != nil {
		logger.Fatal("enrichment initialization failed", zap.Error(err))
	}

	senders, err := buildSenderRegistry(cfg, logger)
	if err != nil {
		logger.Fatal("sender initialization failed", zap.Error(err))
	}

	repo := repository.NewGormNotificationRepo(db)

	dispatchService, err := service.NewDispatchService(
		repo,
		resolver,
		senders,
		policies,
		time.Duration(cfg.SendTimeoutMS)*time.Millisecond,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}
	dispatchService.SetMetrics(metrics)

	consumer, err := ingest.NewConsumer(ingest.ReaderConfig{
		Brokers:           cfg.BrokerList(),
		GroupID:           cfg.KafkaGroupID,
		OrderTopic:        cfg.OrderTopic,
		NotificationTopic: cfg.NotificationTopic,
	}, dispatchService, logger)
	if err != nil {
		logger.Fatal("consumer initialization failed", zap.Error(err))
	}
	consumer.SetMetrics(metrics)
	defer consumer.Close()

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterNotificationRoutes(app, dispatchService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("consumer started",
			zap.String("orderTopic", cfg.OrderTopic),
			zap.String("notificationTopic", cfg.NotificationTopic),
		)
		return consumer.Start(groupCtx)
	})

	group.Go(func() error {
		logger.Info("api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("service terminated", zap.Error(err))
	}
	logger.Info("service stopped")
}

func buildResolver(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*enrichment.Resolver, error) {
	enrichTimeout := time.Duration(cfg.EnrichTimeoutMS) * time.Millisecond

	orders, err := enrichment.NewOrderClient(cfg.OrderServiceURL, enrichTimeout)
	if err != nil {
		return nil, err
	}
	products, err := enrichment.NewProductClient(cfg.ProductServiceURL, enrichTimeout)
	if err != nil {
		return nil, err
	}

	resolver := enrichment.NewResolver(orders, products, logger)
	resolver.SetMetrics(metrics)
	return resolver, nil
}

func buildSenderRegistry(cfg *config.Config, logger *zap.Logger) (*channel.SenderRegistry, error) {
	registry := channel.NewSenderRegistry()

	smtpSender, err := channel.NewSMTPSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		cfg.SMTPFrom,
		logger,
	)
	if err != nil {
		return nil, err
	}
	registry.Register(domain.ChannelEmail, smtpSender)

	if cfg.SMSGatewayURL != "" {
		smsSender, err := channel.NewWebhookSender(cfg.SMSGatewayURL)
		if err != nil {
			return nil, err
		}
		registry.Register(domain.ChannelSMS, smsSender)
	}

	if cfg.PushGatewayURL != "" {
		pushSender, err := channel.NewWebhookSender(cfg.PushGatewayURL)
		if err != nil {
			return nil, err
		}
		registry.Register(domain.ChannelPush, pushSender)
	}

	return registry, nil
}
