// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/models"
	"github.com/yksingh/codenotify/internal/notify"
	"github.com/yksingh/codenotify/internal/sync"
	"github.com/yksingh/codenotify/internal/validation"
)

// syncResponse is the body of the admin sync endpoints.
type syncResponse struct {
	Results    map[models.Platform]models.SyncResult `json:"results"`
	Forced     bool                                  `json:"forced"`
	DurationMs int64                                 `json:"duration_ms"`
}

// TriggerSync handles POST /api/v1/admin/sync. Syncs all enabled platforms;
// ?force=true bypasses the staleness cache. A concurrent sync yields 409.
// When every platform fails the response is a 502 carrying the per-platform
// results, so clients never read a misleading success.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.syncManager == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "Sync is disabled")
		return
	}

	force := getBoolParam(r, "force")
	start := time.Now()

	results, err := h.syncManager.TriggerSync(r.Context(), force)
	if err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			rw.Conflict("A sync is already in progress")
			return
		}
		rw.InternalError("Sync failed to start")
		return
	}

	resp := syncResponse{
		Results:    results,
		Forced:     force,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if allFailed(results) {
		rw.ExternalServiceError("All platform syncs failed", resp)
		return
	}
	rw.Success(resp)
}

// TriggerPlatformSync handles POST /api/v1/admin/sync/{platform}.
func (h *Handler) TriggerPlatformSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.syncManager == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "Sync is disabled")
		return
	}

	req := SyncPlatformRequest{Platform: chi.URLParam(r, "platform")}
	if err := validation.ValidateStruct(&req); err != nil {
		apiErr := err.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	platform, _ := models.ParsePlatform(req.Platform)
	force := getBoolParam(r, "force")
	start := time.Now()

	result, err := h.syncManager.SyncPlatform(r.Context(), platform, force)
	if err != nil {
		switch {
		case errors.Is(err, sync.ErrSyncInProgress):
			rw.Conflict("A sync is already in progress")
		case errors.Is(err, sync.ErrPlatformNotEnabled):
			rw.NotFound("Platform is not enabled")
		default:
			rw.InternalError("Sync failed to start")
		}
		return
	}

	resp := syncResponse{
		Results:    map[models.Platform]models.SyncResult{platform: result},
		Forced:     force,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if result.Error != "" {
		rw.ExternalServiceError("Platform sync failed", resp)
		return
	}
	rw.Success(resp)
}

// TriggerCleanup handles POST /api/v1/admin/cleanup: deletes finished
// contests older than the retention window.
func (h *Handler) TriggerCleanup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.syncManager == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "Sync is disabled")
		return
	}

	deleted, err := h.syncManager.RunCleanup(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Int64("deleted", deleted).Msg("Manual cleanup completed")
	rw.Success(map[string]int64{"deleted": deleted})
}

// RedeliverNotification handles POST /api/v1/admin/notifications/{id}/redeliver.
// Re-sends one failed notification synchronously and returns the updated
// row.
func (h *Handler) RedeliverNotification(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.redeliverer == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "Notifications are disabled")
		return
	}

	req := RedeliverRequest{ID: chi.URLParam(r, "id")}
	if err := validation.ValidateStruct(&req); err != nil {
		apiErr := err.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	n, err := h.redeliverer.Redeliver(r.Context(), req.ID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			rw.NotFound("Notification not found")
		case errors.Is(err, notify.ErrNotRedeliverable):
			rw.Conflict("Only failed notifications can be redelivered")
		default:
			rw.DatabaseError(err)
		}
		return
	}

	rw.Success(n)
}

// redeliverFailedResponse summarizes one batch redelivery pass.
type redeliverFailedResponse struct {
	Scanned     int `json:"scanned"`
	Redelivered int `json:"redelivered"`
	StillFailed int `json:"still_failed"`
	Skipped     int `json:"skipped"`
}

// RedeliverFailed handles POST /api/v1/admin/notifications/redeliver-failed.
// Re-sends every notification that failed within the lookback window
// (?since_hours, default 24) and returns per-outcome counts. Rows that left
// the failed state between the scan and the send are skipped.
func (h *Handler) RedeliverFailed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.redeliverer == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "Notifications are disabled")
		return
	}

	sinceHours := getIntParam(r, "since_hours", 24)
	if sinceHours <= 0 {
		rw.ValidationError("since_hours must be positive", nil)
		return
	}
	since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)

	failed, err := h.store.ListFailedNotifications(r.Context(), since)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	resp := redeliverFailedResponse{Scanned: len(failed)}
	for _, n := range failed {
		updated, err := h.redeliverer.Redeliver(r.Context(), n.ID)
		if err != nil {
			if errors.Is(err, notify.ErrNotRedeliverable) || errors.Is(err, database.ErrNotFound) {
				resp.Skipped++
				continue
			}
			logging.Ctx(r.Context()).Error().Err(err).Str("notification_id", n.ID).Msg("Batch redelivery failed")
			resp.StillFailed++
			continue
		}
		if updated.Status == models.NotificationSent {
			resp.Redelivered++
		} else {
			resp.StillFailed++
		}
	}

	logging.Ctx(r.Context()).Info().
		Int("scanned", resp.Scanned).
		Int("redelivered", resp.Redelivered).
		Int("still_failed", resp.StillFailed).
		Msg("Batch redelivery completed")
	rw.Success(resp)
}

// allFailed reports whether every platform in the result set failed
// outright.
func allFailed(results map[models.Platform]models.SyncResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Error == "" {
			return false
		}
	}
	return true
}
