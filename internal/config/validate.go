package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the server cannot run with.
func (c ServerConfig) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}

	switch strings.ToLower(c.DB.Driver) {
	case "sqlite", "sqlite3", "mysql", "postgres", "postgresql", "pq":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q is not supported", c.DB.Driver))
	}
	if c.DB.Driver != "" && !strings.HasPrefix(strings.ToLower(c.DB.Driver), "sqlite") && c.DB.DSN == "" {
		errs = append(errs, fmt.Errorf("db.dsn is required for %s", c.DB.Driver))
	}

	switch c.Cache.Backend {
	case "memory", "badger", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q must be memory, badger or none", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if c.Events.Enabled() && c.Events.Topic == "" {
		errs = append(errs, errors.New("events.topic is required when brokers are set"))
	}

	if c.List.DefaultPageSize < 1 || c.List.MaxPageSize < 1 {
		errs = append(errs, errors.New("list page sizes must be positive"))
	} else if c.List.DefaultPageSize > c.List.MaxPageSize {
		errs = append(errs, errors.New("list.default_page_size exceeds list.max_page_size"))
	}

	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rate_limit.requests must not be negative"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}

	if c.AdminBootstrap != "" && !strings.Contains(c.AdminBootstrap, ":") {
		errs = append(errs, errors.New("admin_bootstrap must be user:password"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
