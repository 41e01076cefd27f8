// Package config assembles worldloom settings from defaults, an optional
// TOML file, a .env file and WORLDLOOM_* environment variables, in that
// order of increasing precedence. Command-line flags are applied on top by
// the CLI.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/pipeline"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WORLDLOOM_"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the full worldloom configuration.
type Config struct {
	// Source is the default world source DSN used when no world file is given.
	Source string `toml:"source" env:"SOURCE"`

	Layout LayoutConfig `toml:"layout" envPrefix:"LAYOUT_"`
	Cache  CacheConfig  `toml:"cache" envPrefix:"CACHE_"`
	Server ServerConfig `toml:"server" envPrefix:"SERVER_"`
}

// LayoutConfig holds default layout parameters.
type LayoutConfig struct {
	Strategy   string  `toml:"strategy" env:"STRATEGY"`
	Width      float64 `toml:"width" env:"WIDTH"`
	Height     float64 `toml:"height" env:"HEIGHT"`
	Iterations int     `toml:"iterations" env:"ITERATIONS"`
	Seed       uint64  `toml:"seed" env:"SEED"`
	ShowLabels bool    `toml:"show_labels" env:"SHOW_LABELS"`
}

// CacheConfig selects the world cache backend.
type CacheConfig struct {
	Backend  string        `toml:"backend" env:"BACKEND"`
	Dir      string        `toml:"dir" env:"DIR"`
	RedisURL string        `toml:"redis_url" env:"REDIS_URL"`
	TTL      time.Duration `toml:"ttl" env:"TTL"`
}

// ServerConfig configures `worldloom serve`.
type ServerConfig struct {
	Addr string `toml:"addr" env:"ADDR"`

	// PublishRedisURL enables publishing every snapshot to Redis.
	PublishRedisURL string `toml:"publish_redis_url" env:"PUBLISH_REDIS_URL"`
	PublishChannel  string `toml:"publish_channel" env:"PUBLISH_CHANNEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Strategy: pipeline.DefaultStrategy,
		},
		Cache: CacheConfig{
			Backend: CacheNone,
			TTL:     10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			PublishChannel: "worldloom:layouts",
		},
	}
}

// Load builds the configuration. path names an optional TOML file; envFiles
// are .env files to load, defaulting to ".env" in the working directory.
// Missing .env files are ignored, a missing TOML file is not.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", f)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if err := pipeline.ValidateStrategy(c.Layout.Strategy); err != nil {
		return err
	}
	if c.Layout.Width < 0 || c.Layout.Height < 0 || c.Layout.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout dimensions and iterations must not be negative")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend %q (must be one of: none, file, redis)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	return nil
}

// PipelineOptions returns pipeline options seeded from the layout defaults
// and the default source.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Source:     c.Source,
		Strategy:   c.Layout.Strategy,
		Width:      c.Layout.Width,
		Height:     c.Layout.Height,
		Iterations: c.Layout.Iterations,
		Seed:       c.Layout.Seed,
		ShowLabels: c.Layout.ShowLabels,
	}
}

// OpenCache opens the configured cache backend. The file backend defaults
// to <user cache dir>/worldloom.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheFile:
		dir := c.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, fmt.Errorf("locate cache dir: %w", err)
			}
			dir = filepath.Join(base, "worldloom")
		}
		return cache.NewFileCache(dir)
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return cache.NewNullCache(), nil
	}
}
