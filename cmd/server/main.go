// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package main is the entry point for the CodeNotify server.
//
// CodeNotify aggregates programming contest schedules from Codeforces,
// LeetCode, CodeChef and AtCoder into a single DuckDB-backed store, serves
// them over a REST API, and reminds subscribed users before contests start
// via email, WhatsApp or webhooks.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables over config file over defaults (Koanf v2)
//  2. Database: DuckDB store for contests, users and notifications
//  3. Staleness cache: BadgerDB-backed record of last successful syncs
//  4. Sync manager: one circuit-breaker-wrapped adapter per enabled platform
//  5. Notification stack: channel registry, dispatcher worker pool, scheduler
//  6. HTTP server: chi-routed REST API with JWT-guarded admin endpoints
//
// Everything long-running is handed to a suture supervisor tree with two
// layers (jobs, api) so a crashing sync loop restarts with backoff instead
// of taking the API down.
//
// # Configuration
//
// For JWT-guarded admin endpoints (default):
//   - JWT_SECRET: 32+ character secret for token signing
//
// For development, AUTH_MODE=none opens the admin endpoints.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the notification dispatch queue
//   - Closes the staleness cache and database
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yksingh/codenotify/internal/api"
	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/notify"
	"github.com/yksingh/codenotify/internal/supervisor"
	"github.com/yksingh/codenotify/internal/supervisor/services"
	"github.com/yksingh/codenotify/internal/sync"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("notifications_enabled", cfg.Notifications.Enabled).
		Msg("Configuration loaded")

	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); admin endpoints are open")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	cache, err := sync.OpenStalenessCache(cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open staleness cache")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing staleness cache")
		}
	}()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// The supervisor starts the sync manager, not us
	syncManager := sync.NewManager(db, cache, cfg)

	// Notification stack: registry -> dispatcher -> scheduler. The whole
	// stack is optional; with notifications disabled the API still serves
	// contests and the stored notification history.
	var dispatcher *notify.Dispatcher
	var scheduler *notify.Scheduler
	if cfg.Notifications.Enabled {
		registry := notify.NewRegistry()
		if cfg.Channels.Email.Enabled {
			registry.Register(notify.NewEmailChannel(cfg.Channels.Email))
		}
		if cfg.Channels.WhatsApp.Enabled {
			registry.Register(notify.NewWhatsAppChannel(cfg.Channels.WhatsApp))
		}
		if cfg.Channels.Webhook.Enabled {
			registry.Register(notify.NewWebhookChannel(cfg.Channels.Webhook))
		}
		if len(registry.List()) == 0 {
			logging.Warn().Msg("Notifications enabled but no channels are configured")
		}

		dispatcher = notify.NewDispatcher(db, registry, cfg.Notifications)
		scheduler = notify.NewScheduler(db, dispatcher, cfg.Notifications)
		logging.Info().
			Int("channels", len(registry.List())).
			Int("window_hours", cfg.Notifications.WindowHours).
			Msg("Notification stack initialized")
	} else {
		logging.Info().Msg("Notifications disabled (NOTIFICATIONS_ENABLED=false)")
	}

	// A nil *Dispatcher must stay a nil interface so the API reports the
	// feature as disabled instead of panicking on a typed nil.
	var redeliverer api.Redeliverer
	if dispatcher != nil {
		redeliverer = dispatcher
	}

	router, err := api.NewRouter(cfg, db, syncManager, redeliverer)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to set up router")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Jobs layer services
	tree.AddJobService(services.NewSyncService(syncManager))
	if dispatcher != nil {
		tree.AddJobService(services.NewDispatcherService(dispatcher))
		tree.AddJobService(services.NewSchedulerService(scheduler))
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
