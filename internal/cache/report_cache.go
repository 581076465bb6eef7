// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

// reportEntry is a cached report with expiration.
type reportEntry struct {
	report    *models.AnnualReport
	expiresAt time.Time
}

// ReportCache is a thread-safe in-memory TTL cache for assembled annual
// reports. Building a report costs dozens of upstream API calls, so repeat
// requests for the same (username, year) within the TTL are served from
// memory.
type ReportCache struct {
	mu      sync.RWMutex
	entries map[string]reportEntry
	ttl     time.Duration
}

// NewReportCache creates a report cache with the given TTL and starts a
// background cleanup goroutine that runs for the cache lifetime.
func NewReportCache(ttl time.Duration) *ReportCache {
	c := &ReportCache{
		entries: make(map[string]reportEntry),
		ttl:     ttl,
	}
	go c.cleanupLoop()
	return c
}

// ReportKey builds the cache key for a (username, year) pair.
func ReportKey(username string, year int) string {
	return fmt.Sprintf("%s:%d", username, year)
}

// Get retrieves a cached report, expiring stale entries on access.
func (c *ReportCache) Get(key string) (*models.AnnualReport, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.report, true
}

// Set stores a report under the given key.
func (c *ReportCache) Set(key string, report *models.AnnualReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = reportEntry{
		report:    report,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear invalidates all cached reports.
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]reportEntry)
}

// Len returns the current number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *ReportCache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
