// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"net/http"

	"github.com/yksingh/codenotify/internal/validation"
)

// ListNotifications handles GET /api/v1/notifications?user_id=N.
// Returns the user's notification history, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := NotificationListRequest{
		UserID: int64(getIntParam(r, "user_id", 0)),
		Limit:  h.pageLimit(getIntParam(r, "limit", 0)),
	}
	if err := validation.ValidateStruct(&req); err != nil {
		apiErr := err.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	notifications, err := h.store.ListNotificationsForUser(r.Context(), req.UserID, req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(notifications, &PaginationMeta{
		Count:   len(notifications),
		Limit:   req.Limit,
		HasMore: len(notifications) == req.Limit,
	})
}

// NotificationStats handles GET /api/v1/notifications/stats: row counts per
// delivery status.
func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	counts, err := h.store.CountNotificationsByStatus(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{"by_status": counts})
}
