// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package config

import (
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Bangumi.PageSize != 30 {
		t.Errorf("expected default page size 30, got %d", cfg.Bangumi.PageSize)
	}
	if cfg.Bangumi.Concurrency != 10 {
		t.Errorf("expected default concurrency 10, got %d", cfg.Bangumi.Concurrency)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BANGUMI_PAGE_SIZE", "50")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_PATH", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Bangumi.PageSize != 50 {
		t.Errorf("expected page size 50 from env, got %d", cfg.Bangumi.PageSize)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999 from env, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("expected comma-split CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Bangumi.BaseURL = "" }},
		{"page size over API max", func(c *Config) { c.Bangumi.PageSize = 51 }},
		{"zero concurrency", func(c *Config) { c.Bangumi.Concurrency = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero schema version", func(c *Config) { c.Cache.SchemaVersion = 0 }},
		{"proxy without base url", func(c *Config) { c.Proxy.Enabled = true }},
		{"bogus timezone", func(c *Config) { c.Report.Timezone = "Not/AZone" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := defaultConfig()
	cfg.Report.Timezone = "Asia/Shanghai"
	loc := cfg.Location()
	if loc.String() != "Asia/Shanghai" {
		t.Errorf("expected Asia/Shanghai, got %v", loc)
	}

	cfg.Report.Timezone = ""
	if cfg.Location() == nil {
		t.Error("empty timezone should fall back, not return nil")
	}
}

func TestEnvTransformDropsUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unknown env var should map to empty path, got %q", got)
	}
	if got := envTransformFunc("BANGUMI_BASE_URL"); got != "bangumi.base_url" {
		t.Errorf("expected bangumi.base_url, got %q", got)
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8640, ShutdownTimeout: time.Second}
	if s.Addr() != "127.0.0.1:8640" {
		t.Errorf("unexpected addr %q", s.Addr())
	}
}
