// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bgm-game-report/config.yaml",
	"/etc/bgm-game-report/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all built-in defaults. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Bangumi: BangumiConfig{
			BaseURL:           "https://api.bgm.tv/v0",
			UserAgent:         "ngyama/bgm-game-report (https://github.com/Ngyama/bgm-game-report)",
			PageSize:          30,
			Concurrency:       10,
			RequestsPerSecond: 5,
			Burst:             10,
			Timeout:           20 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8640,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Cache: CacheConfig{
			Path:          "/data/detail-cache",
			SchemaVersion: 1,
			ReportTTL:     10 * time.Minute,
			GCInterval:    30 * time.Minute,
		},
		Report: ReportConfig{
			Timezone: "Local",
		},
		Proxy: ProxyConfig{
			Enabled:       false,
			PublicBaseURL: "",
			AllowedHosts:  []string{"lain.bgm.tv", "bgm.tv"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if it exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; known slice fields are comma-split.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"proxy.allowed_hosts",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue // already a slice (from YAML) or empty
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to config paths.
var envMappings = map[string]string{
	"bangumi_base_url":            "bangumi.base_url",
	"bangumi_user_agent":          "bangumi.user_agent",
	"bangumi_page_size":           "bangumi.page_size",
	"bangumi_concurrency":         "bangumi.concurrency",
	"bangumi_requests_per_second": "bangumi.requests_per_second",
	"bangumi_burst":               "bangumi.burst",
	"bangumi_timeout":             "bangumi.timeout",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	"cache_path":           "cache.path",
	"cache_schema_version": "cache.schema_version",
	"report_cache_ttl":     "cache.report_ttl",
	"cache_gc_interval":    "cache.gc_interval",

	"report_timezone": "report.timezone",

	"proxy_enabled":         "proxy.enabled",
	"proxy_public_base_url": "proxy.public_base_url",
	"proxy_allowed_hosts":   "proxy.allowed_hosts",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config
// paths, e.g. BANGUMI_BASE_URL -> bangumi.base_url. Unknown variables are
// dropped so unrelated environment noise never leaks into the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}
