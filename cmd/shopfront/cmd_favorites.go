package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/favorites"
)

func runFavorites(args []string) {
	fs := flag.NewFlagSet("favorites", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	clearAll := fs.Bool("clear", false, "remove all favorites")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	ctx := context.Background()

	kv, closer, err := openKV(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open favorites store: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	favs := favorites.New(ctx, kv, zap.NewNop())

	if *clearAll {
		n := favs.Count()
		favs.ClearFavorites(ctx)
		fmt.Printf("Cleared %d favorites\n", n)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(favs.Favorites()); err != nil {
		fmt.Fprintf(os.Stderr, "encode favorites: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, favorites.SavedText(favs.Count()))
}
