package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/shopfront/internal/config"
	"github.com/HerbHall/shopfront/internal/fakestore"
	"github.com/HerbHall/shopfront/internal/store"
)

// newLogger builds the process logger from log.level and log.development.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.GetBool("log.development") {
		zc = zap.NewDevelopmentConfig()
	}
	if raw := cfg.GetString("log.level"); raw != "" {
		lvl, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

// openKV opens the favorites backend named by store.backend. The returned
// closer is never nil.
func openKV(ctx context.Context, cfg *config.Config) (store.KV, io.Closer, error) {
	path := cfg.GetString("store.path")
	switch backend := cfg.GetString("store.backend"); backend {
	case "sqlite", "":
		st, err := store.New(path)
		if err != nil {
			return nil, nil, err
		}
		kv, err := store.NewSQLiteKV(ctx, st)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		return kv, st, nil
	case "file":
		kv, err := store.NewFileKV(path)
		if err != nil {
			return nil, nil, err
		}
		return kv, noopCloser{}, nil
	case "memory":
		return store.NewMemoryKV(), noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store.backend %q (want sqlite, file, memory)", backend)
	}
}

// newSource builds the cached, rate-limited store API client.
func newSource(cfg *config.Config, logger *zap.Logger, observer fakestore.Observer) *fakestore.Cached {
	opts := []fakestore.Option{
		fakestore.WithLogger(logger),
		fakestore.WithRateLimit(cfg.GetFloat64("api.rate_limit")),
	}
	if d := cfg.GetDuration("api.timeout"); d > 0 {
		opts = append(opts, fakestore.WithTimeout(d))
	}
	if observer != nil {
		opts = append(opts, fakestore.WithObserver(observer))
	}
	client := fakestore.NewClient(cfg.GetString("api.base_url"), opts...)
	return fakestore.NewCached(client,
		fakestore.WithTTL(cfg.GetDuration("api.products_ttl"), cfg.GetDuration("api.categories_ttl")),
		fakestore.WithCacheLogger(logger),
	)
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
