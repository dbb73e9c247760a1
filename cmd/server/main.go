// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package main is the SmartFood bot server.
//
// One process hosts every pipeline stage:
//
//  1. Configuration: koanf layers (defaults, config.yaml, environment)
//  2. Preference store: memory, BadgerDB or SQLite (STORE_TYPE)
//  3. Message bus: Watermill over GoChannel or NATS JetStream (BUS_TRANSPORT),
//     optionally with an embedded NATS server (NATS_EMBEDDED=true)
//  4. Router: detection, recommendation and delivery stages
//  5. HTTP server: Telegram webhook, health probes and /metrics
//
// Everything long-running is supervised by a suture tree. SIGINT and SIGTERM
// cancel the tree; the HTTP server drains, the router waits for in-flight
// messages and the bus and store are closed last.
//
// Minimal local run:
//
//	export BOT_TOKEN=123456789:AA...
//	export STORE_TYPE=memory
//	export ARTIFACT_BACKEND=file ARTIFACT_SOURCE_DIR=./artifacts
//	./smartfood
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/preferences"
	"github.com/tomtom215/smartfood/internal/supervisor"
	"github.com/tomtom215/smartfood/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().Str("version", version).Msg("Starting SmartFood")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Bus.Router.CloseTimeout + 5*time.Second,
	})
	addServices(tree, a)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Address()).Str("webhook", cfg.Server.WebhookPath).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("SmartFood stopped")
}

// addServices places the app's long-running parts in their layers.
func addServices(tree *supervisor.SupervisorTree, a *app) {
	if a.cfg.Recommend.WarmUp {
		tree.AddDataService(services.NewWarmUpService(a.engine, a.cfg.Artifacts.Timeout*2, logging.WithComponent("recommend")))
	}
	if gc, ok := a.store.(*preferences.BadgerStore); ok {
		tree.AddDataService(services.NewStoreMaintenanceService(gc, 10*time.Minute, logging.WithComponent("preferences")))
	}

	tree.AddMessagingService(services.NewRouterService(a.router))
	tree.AddMessagingService(services.NewCacheSweepService(map[string]services.ExpirySweeper{
		"webhook_updates": a.api,
		"bus_dedup":       a.router,
	}, time.Minute, logging.WithComponent("cache")))

	server := &http.Server{
		Addr:              a.cfg.Server.Address(),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.cfg.Server.Timeout,
		WriteTimeout:      a.cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
}
