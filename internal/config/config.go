// Package config reads the api settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/internal/cache"
	"github.com/ntentasd/kolam-api/internal/chart"
	"github.com/rs/zerolog"
)

type Config struct {
	HTTPAddr string

	ScyllaNodes    []string
	ScyllaKeyspace string

	CacheDriver   string
	ValkeyNodes   []string
	ValkeyService string
	MemcachedAddr []string
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	TempoEndpoint string

	RefreshInterval time.Duration
	RefreshPonds    []string
	ReadWindow      time.Duration

	PaddingFactor float64
	DateOrder     aggregate.DateOrder

	LogLevel zerolog.Level
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ScyllaNodes:    splitList(getEnv("SCYLLA_NODES", "localhost:9042")),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "kolam"),
		CacheDriver:    getEnv("CACHE_DRIVER", cache.DriverValkey),
		ValkeyNodes:    splitList(os.Getenv("VALKEY_NODES")),
		ValkeyService:  os.Getenv("VALKEY_SERVICE"),
		MemcachedAddr:  splitList(os.Getenv("MEMCACHED_ADDR")),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "kolam_readings"),
		KafkaGroup:     getEnv("KAFKA_GROUP", "kolam-api"),
		TempoEndpoint:  os.Getenv("TEMPO_ENDPOINT"),
		RefreshPonds:   splitList(os.Getenv("REFRESH_PONDS")),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReadWindow, err = getDuration("READ_WINDOW", 7*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.PaddingFactor = chart.DefaultPaddingFactor
	if v := os.Getenv("CHART_PADDING_FACTOR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid CHART_PADDING_FACTOR %q", v)
		}
		cfg.PaddingFactor = f
	}

	switch order := getEnv("DAILY_ORDER", "chronological"); order {
	case "chronological":
		cfg.DateOrder = aggregate.Chronological
	case "first_seen":
		cfg.DateOrder = aggregate.FirstSeen
	default:
		return nil, fmt.Errorf("invalid DAILY_ORDER %q", order)
	}

	if cfg.LogLevel, err = zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.CacheDriver {
	case cache.DriverValkey, cache.DriverMemcached:
	default:
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q", cfg.CacheDriver)
	}

	return cfg, nil
}

// CacheAddrs returns the server list of the selected cache driver.
func (c *Config) CacheAddrs() []string {
	if c.CacheDriver == cache.DriverMemcached {
		return c.MemcachedAddr
	}
	return cache.ResolveValkeyAddrs(c.ValkeyNodes, c.ValkeyService)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
