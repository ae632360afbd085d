package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/catalog"
	"github.com/HerbHall/shopfront/internal/event"
	"github.com/HerbHall/shopfront/internal/fakestore"
	"github.com/HerbHall/shopfront/internal/favorites"
	"github.com/HerbHall/shopfront/internal/metrics"
	"github.com/HerbHall/shopfront/internal/server"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Shopfront server starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closer, err := openKV(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open favorites store", zap.Error(err))
	}
	defer closer.Close()

	m := metrics.New()
	bus := event.NewBus(logger)
	unsub := bus.Subscribe(favorites.TopicChanged, func(_ context.Context, e event.Event) {
		c, ok := e.Payload.(favorites.Change)
		if !ok {
			return
		}
		logger.Info("favorites changed",
			zap.String("kind", string(c.Kind)),
			zap.Int("product_id", c.ProductID),
			zap.Int("count", len(c.Favorites)),
		)
	})
	defer unsub()
	untrace := bus.SubscribeAll(func(_ context.Context, e event.Event) {
		logger.Debug("event published", zap.String("topic", e.Topic), zap.String("source", e.Source))
	})
	defer untrace()

	favs := favorites.New(ctx, kv, logger, favorites.WithPublisher(bus), favorites.WithMetrics(m))
	source := newSource(cfg, logger, m)

	srv := server.New(cfg.Addr(), logger,
		server.WithRoutes(
			catalog.NewHandler(source, favs, logger),
			favorites.NewHandler(favs, logger),
		),
		server.WithMetricsHandler(m.Handler()),
		server.WithCORSOrigins(cfg.GetStringSlice("server.cors_origins")),
		server.WithRateLimit(cfg.GetFloat64("server.rate_limit"), cfg.GetInt("server.rate_burst")),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Shopfront server ready", zap.String("addr", cfg.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigCh
	for sig == syscall.SIGHUP {
		invalidateCatalog(ctx, source, bus, logger)
		sig = <-sigCh
	}

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Shopfront server stopped")
}

// invalidateCatalog drops cached upstream responses so the next request
// refetches them.
func invalidateCatalog(ctx context.Context, source *fakestore.Cached, bus event.Publisher, logger *zap.Logger) {
	source.Invalidate()
	logger.Info("catalog cache invalidated")
	_ = bus.Publish(ctx, event.Event{Topic: fakestore.TopicInvalidated, Source: "fakestore"})
}
