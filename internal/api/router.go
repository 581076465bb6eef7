// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ngyama/bgm-game-report/internal/config"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
)

// NewRouter configures all HTTP routes.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(prometheusMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health endpoints stay outside the rate limit so probes never starve.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, rateWindow(cfg.RateLimitWindow)))
		}

		r.Get("/report", h.Report)
		r.Get("/users/{username}", h.User)
		r.Get("/image", h.Image)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func rateWindow(w time.Duration) time.Duration {
	if w <= 0 {
		return time.Minute
	}
	return w
}

// prometheusMiddleware records per-route request latency. The chi route
// pattern is used instead of the raw path to keep label cardinality bounded.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
