// Package config wraps Viper with nil-safe accessors and the shopfront
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, so server.port is
// read from SHOPFRONT_SERVER_PORT.
const EnvPrefix = "SHOPFRONT"

// Config is a read-only view over a Viper instance. The zero value and a
// Config over a nil Viper return zero values for every key.
type Config struct {
	v *viper.Viper
}

// New wraps v. A nil v yields an empty Config.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Defaults applied by Load before any file or environment value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("api.base_url", "https://fakestoreapi.com")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("api.products_ttl", 5*time.Minute)
	v.SetDefault("api.categories_ttl", 10*time.Minute)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "shopfront.db")

	v.SetDefault("search.debounce", 300*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration from path (YAML, optional), then the environment,
// on top of the built-in defaults. An empty path looks for shopfront.yaml in
// the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return New(v), nil
	}

	v.SetConfigName("shopfront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return New(v), nil
}

func (c *Config) GetString(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

func (c *Config) GetStringSlice(key string) []string {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.GetStringSlice(key)
}

func (c *Config) GetInt(key string) int {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

func (c *Config) GetFloat64(key string) float64 {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetFloat64(key)
}

func (c *Config) GetBool(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

func (c *Config) IsSet(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the subtree at key. A missing key yields an empty Config,
// never nil.
func (c *Config) Sub(key string) *Config {
	if c == nil || c.v == nil {
		return New(nil)
	}
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole config into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}

// Addr returns server.host:server.port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetString("server.host"), c.GetInt("server.port"))
}
