package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
)

type eventPublisher interface {
	checkout.EventPublisher
	Close() error
}

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.LogDevelopment)
	err := run(cfg, logger)
	if err != nil {
		logger.Error("storefront-checkout failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every connection it opens, so an early return still closes them.
func run(cfg config.Config, logger *zap.Logger) error {
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, db.PoolOptions{MaxConns: cfg.DatabaseMaxConns})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	var publisher eventPublisher = events.NoopPublisher{Logger: logger}
	if cfg.PublishEvents {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer conn.Close()

		p, err := events.NewPublisher(conn, events.PublisherOptions{Logger: logger})
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		publisher = p
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close error", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()

	api, err := backend.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout}, reg)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	svc := checkout.NewService(checkout.Deps{
		Backend: api,
		Drafts:  drafts.NewRedisStore(rdb, cfg.DraftTTL),
		Orders:  orders.NewPostgresRepository(pool),
		Events:  publisher,
		Metrics: reg,
		Policy:  cfg.Shipping,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Checkout:         svc,
			Metrics:          reg.Handler(),
			Logger:           logger,
			CORSAllowOrigins: cfg.CORSAllowOrigins,
			CORSMaxAge:       cfg.CORSMaxAge,
			RequestTimeout:   cfg.BackendTimeout + 5*time.Second,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront-checkout listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.Float64("free_shipping_threshold", cfg.Shipping.FreeShippingThreshold),
			zap.Float64("flat_shipping_fee", cfg.Shipping.FlatShippingFee),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if serveErr != nil {
		return fmt.Errorf("serve http: %w", serveErr)
	}
	return nil
}

func newLogger(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("service", "storefront-checkout"))
}
