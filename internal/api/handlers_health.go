// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"net/http"
	"time"
)

// healthComponent is the status of one subsystem in the health report.
type healthComponent struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is the body of GET /api/v1/health.
type healthResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	LastSync      *time.Time                 `json:"last_sync,omitempty"`
	Platforms     []string                   `json:"platforms,omitempty"`
	Components    map[string]healthComponent `json:"components"`
}

// Health handles GET /api/v1/health. Degraded components never fail the
// endpoint; the report carries per-component status instead.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Components:    make(map[string]healthComponent),
	}

	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Components["database"] = healthComponent{Status: "down", Message: err.Error()}
	} else {
		resp.Components["database"] = healthComponent{Status: "up"}
	}

	if h.syncManager == nil {
		resp.Components["sync"] = healthComponent{Status: "disabled"}
	} else {
		resp.Components["sync"] = healthComponent{Status: "up"}
		if last := h.syncManager.LastSyncTime(); !last.IsZero() {
			resp.LastSync = &last
		}
		for _, p := range h.syncManager.Platforms() {
			resp.Platforms = append(resp.Platforms, string(p))
		}
	}

	rw.Success(resp)
}

// HealthLive handles GET /api/v1/health/live. Always succeeds while the
// process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Fails until the database
// answers, so orchestrators hold traffic during startup.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.store.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeDatabaseError, "Database is not ready")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
