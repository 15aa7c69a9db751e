// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/yksingh/codenotify/internal/auth"
	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/metrics"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the middleware package plugs into
// r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// RateLimitConfig defines rate limit parameters for a route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-group rate limits. Health is permissive for monitoring probes; admin
// endpoints are tight because each trigger is a full upstream fetch.
var (
	rateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
	rateLimitAdmin  = RateLimitConfig{Requests: 10, Window: time.Minute}
)

// ChiMiddleware builds the router-level middleware from security config.
type ChiMiddleware struct {
	cfg  config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(cfg config.SecurityConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})

	return &ChiMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the CORS middleware. Applied globally so OPTIONS preflight
// requests are handled before routing.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiter from config.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.rateLimit(RateLimitConfig{
		Requests: m.cfg.RateLimitReqs,
		Window:   m.cfg.RateLimitWindow,
	})
}

// RateLimitHealth returns the permissive limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.rateLimit(rateLimitHealth)
}

// RateLimitAdmin returns the strict limiter for admin mutations.
func (m *ChiMiddleware) RateLimitAdmin() func(http.Handler) http.Handler {
	return m.rateLimit(rateLimitAdmin)
}

func (m *ChiMiddleware) rateLimit(rl RateLimitConfig) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled || rl.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := rl.Window
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		rl.Requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// SecurityHeaders sets conservative response headers on API routes.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards admin mutations with a JWT bearer token carrying the
// admin role. With auth mode "none" the guard is a pass-through.
func RequireAdmin(jwtManager *auth.JWTManager, mode string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode == "none" {
				next.ServeHTTP(w, r)
				return
			}
			if jwtManager == nil {
				NewResponseWriter(w, r).InternalError("Authentication is not configured")
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				NewResponseWriter(w, r).Unauthorized("Missing bearer token")
				return
			}

			claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				NewResponseWriter(w, r).Unauthorized("Invalid or expired token")
				return
			}
			if claims.Role != auth.RoleAdmin {
				NewResponseWriter(w, r).Forbidden("Admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
