// Command shopfront serves and browses the product catalog.
//
// Usage:
//
//	shopfront [serve] [-config path]
//	shopfront browse [-config path]
//	shopfront favorites [-config path] [-clear]
//	shopfront version
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/HerbHall/shopfront/internal/version"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "browse":
		runBrowse(args)
	case "favorites":
		runFavorites(args)
	case "version":
		fmt.Println(version.Info())
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve, browse, favorites, version)\n", cmd)
		os.Exit(2)
	}
}
