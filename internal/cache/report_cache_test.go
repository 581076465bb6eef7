// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package cache

import (
	"testing"
	"time"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

func TestReportCacheBasicOperations(t *testing.T) {
	c := NewReportCache(1 * time.Minute)

	report := &models.AnnualReport{Username: "sai", Year: 2025}
	key := ReportKey("sai", 2025)

	c.Set(key, report)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cached report")
	}
	if got.Username != "sai" || got.Year != 2025 {
		t.Errorf("unexpected report %+v", got)
	}

	if _, ok := c.Get(ReportKey("sai", 2024)); ok {
		t.Error("expected miss for different year")
	}
}

func TestReportCacheExpiration(t *testing.T) {
	c := NewReportCache(50 * time.Millisecond)
	key := ReportKey("sai", 2025)

	c.Set(key, &models.AnnualReport{})
	if _, ok := c.Get(key); !ok {
		t.Error("expected hit immediately after set")
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted on access, len=%d", c.Len())
	}
}

func TestReportCacheClear(t *testing.T) {
	c := NewReportCache(1 * time.Minute)

	c.Set(ReportKey("a", 2024), &models.AnnualReport{})
	c.Set(ReportKey("b", 2025), &models.AnnualReport{})
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, len=%d", c.Len())
	}
}
