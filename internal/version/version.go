// Package version holds build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/HerbHall/shopfront/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Header is the response header carrying Short().
const Header = "X-Shopfront-Version"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the line printed by `shopfront version`.
func Info() string {
	return fmt.Sprintf("Shopfront %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, runtime.Version())
}

// Short returns just the version, e.g. "1.2.0" or "dev".
func Short() string {
	return Version
}

// UserAgent is sent on every request to the store API.
func UserAgent() string {
	return "shopfront/" + Version
}

// Map returns version info for the health endpoint.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}
