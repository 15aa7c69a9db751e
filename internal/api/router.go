// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yksingh/codenotify/internal/auth"
	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler    *Handler
	chiMw      *ChiMiddleware
	jwtManager *auth.JWTManager
	cfg        *config.Config
}

// NewRouter wires handlers and middleware. With auth mode "jwt" a valid
// secret is required; "none" leaves the admin endpoints open for
// development.
func NewRouter(cfg *config.Config, store Store, syncManager SyncManager, redeliverer Redeliverer) (*Router, error) {
	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode != "none" {
		var err error
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("auth setup: %w", err)
		}
	}

	return &Router{
		handler:    NewHandler(store, syncManager, redeliverer, cfg),
		chiMw:      NewChiMiddleware(cfg.Security),
		jwtManager: jwtManager,
		cfg:        cfg,
	}, nil
}

// Setup configures all routes and returns the root handler.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(rt.chiMw.CORS())

	// Health endpoints: permissive rate limit for monitoring probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rt.chiMw.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	// Read endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.chiMw.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/contests", rt.handler.ListContests)
		r.Get("/contests/upcoming", rt.handler.UpcomingContests)
		r.Get("/contests/{id}", rt.handler.GetContest)
		r.Get("/notifications", rt.handler.ListNotifications)
		r.Get("/notifications/stats", rt.handler.NotificationStats)
	})

	// Admin mutations: strict rate limit plus the JWT guard.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(rt.chiMw.RateLimitAdmin())
		r.Use(SecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(RequireAdmin(rt.jwtManager, rt.cfg.Security.AuthMode))

		r.Post("/sync", rt.handler.TriggerSync)
		r.Post("/sync/{platform}", rt.handler.TriggerPlatformSync)
		r.Post("/cleanup", rt.handler.TriggerCleanup)
		r.Post("/notifications/{id}/redeliver", rt.handler.RedeliverNotification)
		r.Post("/notifications/redeliver-failed", rt.handler.RedeliverFailed)
	})

	// Prometheus scrape endpoint, outside the envelope.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request handled")
	})
}
