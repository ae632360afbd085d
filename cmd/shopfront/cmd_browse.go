package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/browse"
	"github.com/HerbHall/shopfront/internal/catalog"
	"github.com/HerbHall/shopfront/internal/favorites"
)

func runBrowse(args []string) {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closer, err := openKV(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open favorites store: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	favs := favorites.New(ctx, kv, logger)
	products, err := newSource(cfg, logger, nil).GetAllProducts(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	view := catalog.NewView(products, favs,
		catalog.WithSearchDelay(cfg.GetDuration("search.debounce")),
		catalog.WithLogger(logger),
	)
	defer view.Close()

	session := browse.New(view, favs, products, os.Stdout, logger)
	defer session.Close()

	if err := session.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error("browse session failed", zap.Error(err))
	}
}
