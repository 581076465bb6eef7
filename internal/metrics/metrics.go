// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package metrics provides Prometheus instrumentation for the report
// pipeline: Bangumi API calls, detail cache efficiency, enrichment
// concurrency, and HTTP endpoint latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bangumi API metrics
	BangumiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bangumi_request_duration_seconds",
			Help:    "Duration of Bangumi API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	BangumiRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bangumi_request_errors_total",
			Help: "Total number of failed Bangumi API requests",
		},
		[]string{"endpoint"},
	)

	// Detail cache metrics
	DetailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detail_cache_hits_total",
			Help: "Total number of subject detail cache hits",
		},
	)

	DetailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detail_cache_misses_total",
			Help: "Total number of subject detail cache misses",
		},
	)

	DetailCacheCorrupt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detail_cache_corrupt_entries_total",
			Help: "Total number of unparseable cache entries purged",
		},
	)

	// Enrichment metrics
	EnrichInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enrich_requests_in_flight",
			Help: "Current number of in-flight subject detail requests",
		},
	)

	EnrichDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_degraded_total",
			Help: "Total number of subjects degraded to the default detail after a failed fetch",
		},
	)

	// Report metrics
	ReportBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_build_duration_seconds",
			Help:    "Duration of full annual report builds in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ReportCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Total number of assembled reports served from the TTL cache",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
