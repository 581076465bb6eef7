// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package config provides layered application configuration:
// built-in defaults, an optional YAML config file, and environment variables,
// loaded via Koanf v2 with ENV > file > defaults precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Bangumi BangumiConfig `koanf:"bangumi"`
	Server  ServerConfig  `koanf:"server"`
	Cache   CacheConfig   `koanf:"cache"`
	Report  ReportConfig  `koanf:"report"`
	Proxy   ProxyConfig   `koanf:"proxy"`
	Logging LoggingConfig `koanf:"logging"`
}

// BangumiConfig configures the Bangumi API client.
type BangumiConfig struct {
	// BaseURL is the API root, e.g. https://api.bgm.tv/v0
	BaseURL string `koanf:"base_url"`

	// UserAgent is sent on every request. Bangumi asks API consumers to
	// identify themselves with a project-specific agent string.
	UserAgent string `koanf:"user_agent"`

	// PageSize is the collections page size (API maximum is 50).
	PageSize int `koanf:"page_size"`

	// Concurrency is the subject detail fetch ceiling.
	Concurrency int `koanf:"concurrency"`

	// RequestsPerSecond rate-limits outbound API calls. 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig configures the durable detail cache and the report TTL cache.
type CacheConfig struct {
	// Path is the BadgerDB directory for the subject detail cache.
	Path string `koanf:"path"`

	// SchemaVersion prefixes every detail cache key. Bumping it invalidates
	// all previously cached details.
	SchemaVersion int `koanf:"schema_version"`

	// ReportTTL is how long assembled reports are served from memory.
	ReportTTL time.Duration `koanf:"report_ttl"`

	// GCInterval is how often the Badger value log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ReportConfig configures report building.
type ReportConfig struct {
	// Timezone resolves collection timestamps into calendar years/months.
	// Accepts IANA names or "Local".
	Timezone string `koanf:"timezone"`
}

// ProxyConfig configures the same-origin image proxy.
type ProxyConfig struct {
	// Enabled turns cover URL rewriting on. When disabled, reports carry the
	// upstream URLs unchanged.
	Enabled bool `koanf:"enabled"`

	// PublicBaseURL is the externally visible base URL of this service,
	// used to build rewritten image URLs.
	PublicBaseURL string `koanf:"public_base_url"`

	// AllowedHosts restricts which upstream hosts may be proxied.
	AllowedHosts []string `koanf:"allowed_hosts"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would misbehave at
// runtime. It is called after all layers are merged.
func (c *Config) Validate() error {
	if c.Bangumi.BaseURL == "" {
		return fmt.Errorf("bangumi.base_url must not be empty")
	}
	if c.Bangumi.PageSize < 1 || c.Bangumi.PageSize > 50 {
		return fmt.Errorf("bangumi.page_size must be in [1,50], got %d", c.Bangumi.PageSize)
	}
	if c.Bangumi.Concurrency < 1 {
		return fmt.Errorf("bangumi.concurrency must be >= 1, got %d", c.Bangumi.Concurrency)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Cache.SchemaVersion < 1 {
		return fmt.Errorf("cache.schema_version must be >= 1, got %d", c.Cache.SchemaVersion)
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Proxy.Enabled && c.Proxy.PublicBaseURL == "" {
		return fmt.Errorf("proxy.public_base_url is required when proxy.enabled is true")
	}
	if _, err := time.LoadLocation(locationName(c.Report.Timezone)); err != nil {
		return fmt.Errorf("report.timezone %q is not a valid location: %w", c.Report.Timezone, err)
	}
	return nil
}

// Location returns the configured report timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(locationName(c.Report.Timezone))
	if err != nil {
		return time.Local
	}
	return loc
}

func locationName(tz string) string {
	if tz == "" {
		return "Local"
	}
	return tz
}
