package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-sync-service/app/domain"
	handler "inventory-sync-service/app/handler/api"
	"inventory-sync-service/app/middleware"
	"inventory-sync-service/app/mirror"
	"inventory-sync-service/app/repository/broker"
	"inventory-sync-service/app/repository/db"
	"inventory-sync-service/app/usecase"
	"inventory-sync-service/app/worker"
	"inventory-sync-service/config"
	"inventory-sync-service/pkg/logger"
	"inventory-sync-service/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogfiber "github.com/samber/slog-fiber"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// init logger
	logger.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return
	}
	logger.SetLevel(cfg.LogLevel)
	metrics.Register()

	// init database
	dbConn, err := db.NewPostgres(cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		return
	}
	defer dbConn.Close()

	if cfg.Db.Migrate {
		if err := db.Migrate(dbConn); err != nil {
			slog.Error("DB migration failed", "error", err)
			return
		}
	}

	reqValidator := validator.New()
	productRepo := db.NewProductRepository(dbConn)
	stockMirror := mirror.New()

	channel, listener, err := startSync(ctx, cfg.Sync, productRepo, stockMirror)
	if err != nil {
		slog.Error("sync setup failed", "transport", cfg.Sync.Transport, "error", err)
		return
	}
	defer channel.Close()
	stockBroker := broker.NewStockBrokerPublisher(channel, cfg.Sync.Topic)

	productUsecase := usecase.NewProductUsecase(productRepo, stockBroker, stockMirror)
	syncUsecase := usecase.NewSyncUsecase(listener, stockMirror, productRepo, cfg.Sync.ObserverBuffer)

	productHandler := handler.NewProductHandler(productUsecase, reqValidator)
	syncHandler := handler.NewSyncHandler(syncUsecase)

	app := newApp(cfg, productHandler, syncHandler, func(c *fiber.Ctx) bool {
		return dbConn.PingContext(c.Context()) == nil
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Gracefully shutdown")
	// Open event streams would keep the HTTP shutdown waiting forever.
	syncHandler.CloseStreams()
	if err := listener.Stop(); err != nil {
		slog.Warn("stock listener stopped with error", "err", err)
	}
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
	}
}

// startSync builds the channel for cfg.Transport and starts the listener on
// it. Only configuration errors are returned: an unreachable transport
// leaves the listener failed and the replica serving degraded.
func startSync(ctx context.Context, cfg config.SyncConfig, store domain.ProductRepository, stockMirror domain.StockMirror) (domain.SyncChannel, *worker.StockListener, error) {
	channel, err := newSyncChannel(cfg)
	if err != nil {
		return nil, nil, err
	}

	listener, err := worker.NewStockListener(worker.ListenerConfig{
		Channel:           channel,
		Mirror:            stockMirror,
		Topic:             cfg.Topic,
		Transport:         cfg.Transport,
		ReplicaID:         cfg.ReplicaID,
		Store:             store,
		PollTimeout:       cfg.PollTimeout,
		RetryDelay:        cfg.RetryDelay,
		SubscribeAttempts: cfg.SubscribeAttempts,
	})
	if err != nil {
		channel.Close()
		return nil, nil, err
	}

	if err := listener.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "stock listener not running, replica is degraded", "error", err)
	}
	return channel, listener, nil
}

func newApp(cfg *config.Config, productHandler *handler.ProductHandler, syncHandler *handler.SyncHandler, ready func(*fiber.Ctx) bool) *fiber.App {
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint:  "/live",
		ReadinessProbe:    ready,
		ReadinessEndpoint: "/ready",
	}))
	app.Use(slogfiber.New(logger.New()))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handler.SetupRouter(app, productHandler, syncHandler, cfg)
	return app
}

func newSyncChannel(cfg config.SyncConfig) (domain.SyncChannel, error) {
	switch cfg.Transport {
	case config.TransportRedis:
		client, err := broker.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return broker.NewRedisChannel(client), nil
	case config.TransportNats:
		conn, err := broker.NewNatsConn(cfg.NatsURL, "inventory-sync-"+cfg.ReplicaID)
		if err != nil {
			return nil, err
		}
		return broker.NewNatsChannel(conn), nil
	case config.TransportMemory:
		return broker.NewMemoryChannel(cfg.ObserverBuffer), nil
	default:
		return nil, fmt.Errorf("unknown sync transport %q", cfg.Transport)
	}
}
