// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package main is the entry point for the report server.
//
// The server turns a Bangumi user's game collection into an annual report:
// it pages through the user's collection, enriches each subject with tags,
// platform, and staff data from the subject endpoint (memoized in a durable
// BadgerDB cache), and aggregates the result into rating ranks, monthly
// activity, radar charts, and platform/staff rankings served over HTTP.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml, env)
//  2. Logging: zerolog global logger
//  3. BadgerDB: durable subject detail cache
//  4. Bangumi client: rate-limited, circuit-broken API client
//  5. HTTP server: chi router under a suture supervision tree
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the supervision
// tree drains the HTTP server and stops the cache GC loop.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ngyama/bgm-game-report/internal/api"
	"github.com/Ngyama/bgm-game-report/internal/bangumi"
	"github.com/Ngyama/bgm-game-report/internal/cache"
	"github.com/Ngyama/bgm-game-report/internal/config"
	"github.com/Ngyama/bgm-game-report/internal/enrich"
	"github.com/Ngyama/bgm-game-report/internal/imageproxy"
	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/report"
	"github.com/Ngyama/bgm-game-report/internal/supervisor"
	"github.com/Ngyama/bgm-game-report/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting bgm-game-report")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable subject detail cache.
	db, err := badger.Open(badger.DefaultOptions(cfg.Cache.Path).WithLogger(nil))
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("Failed to open detail cache")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close detail cache")
		}
	}()

	detailStore := cache.NewDetailStore(db, cfg.Cache.SchemaVersion)
	reportCache := cache.NewReportCache(cfg.Cache.ReportTTL)

	// Bangumi API client with outbound rate limiting and a circuit breaker
	// on the high-volume subject detail path.
	client := bangumi.NewClient(&cfg.Bangumi)
	cbClient := bangumi.NewCircuitBreakerClient(client)

	fetcher := enrich.NewFetcher(cbClient, detailStore, cfg.Bangumi.Concurrency)
	builder := report.NewBuilder(client, fetcher, cfg.Location())

	// Image proxy: rewrite cover URLs onto this origin when enabled.
	var rewriter imageproxy.Rewriter = imageproxy.NopRewriter{}
	var imageFetcher *imageproxy.Fetcher
	if cfg.Proxy.Enabled {
		urlRewriter := imageproxy.NewURLRewriter(cfg.Proxy.PublicBaseURL, cfg.Proxy.AllowedHosts)
		rewriter = urlRewriter
		imageFetcher = imageproxy.NewFetcher(urlRewriter, cfg.Bangumi.Timeout)
		logging.Info().Strs("allowed_hosts", cfg.Proxy.AllowedHosts).Msg("Image proxy enabled")
	}

	handler := api.NewHandler(builder, client, reportCache, rewriter, imageFetcher, cfg.Location())
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddMaintenanceService(services.NewBadgerGCService(detailStore, cfg.Cache.GCInterval))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
