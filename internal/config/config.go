// Package config loads the cinedex server configuration. Values are
// layered: struct defaults, then an optional YAML file, then CINEDEX_*
// environment variables. A .env file in the working directory is read
// into the environment first.
package config

import (
	"time"

	"github.com/me/cinedex/internal/cache"
)

// ServerConfig holds configuration for the cinedex server.
type ServerConfig struct {
	Addr           string          `koanf:"addr"`       // Listen address (default ":8080")
	LogLevel       string          `koanf:"log_level"`  // debug, info, warn, error
	LogFormat      string          `koanf:"log_format"` // text, json
	DB             DBConfig        `koanf:"db"`
	Cache          CacheConfig     `koanf:"cache"`
	Events         EventsConfig    `koanf:"events"`
	UI             UIConfig        `koanf:"ui"`
	List           ListConfig      `koanf:"list"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
	CORSOrigins    []string        `koanf:"cors_origins"`
	SeedFile       string          `koanf:"seed_file"`
	AdminBootstrap string          `koanf:"admin_bootstrap"` // user:password
}

// DBConfig selects the SQL backend.
type DBConfig struct {
	Driver string `koanf:"driver"` // sqlite, mysql, postgres
	DSN    string `koanf:"dsn"`    // file path or ":memory:" for sqlite
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend    string              `koanf:"backend"`     // memory, badger, none
	BadgerPath string              `koanf:"badger_path"` // empty means in-memory badger
	TTL        time.Duration       `koanf:"ttl"`
	Sweep      time.Duration       `koanf:"sweep"`
	Breaker    cache.BreakerConfig `koanf:"breaker"`
}

// EventsConfig configures kafka invalidation events. No brokers disables them.
type EventsConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"group_id"`
}

// Enabled reports whether any broker is configured.
func (e EventsConfig) Enabled() bool { return len(e.Brokers) > 0 }

// UIConfig configures the server-rendered UI.
type UIConfig struct {
	SecureCookies bool `koanf:"secure_cookies"`
}

// ListConfig bounds list page sizes.
type ListConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// RateLimitConfig is the per-IP API request budget.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"` // 0 disables limiting
	Window   time.Duration `koanf:"window"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		DB: DBConfig{
			Driver: "sqlite",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     cache.DefaultTTL,
			Sweep:   time.Minute,
			Breaker: cache.DefaultBreakerConfig(),
		},
		Events: EventsConfig{
			Topic:   "cinedex.entity.changed",
			GroupID: "cinedex",
		},
		List: ListConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		CORSOrigins: []string{"*"},
	}
}
