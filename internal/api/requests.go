// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Request structs with go-playground/validator tags. Handlers fill these
// from query/path parameters and validate before touching the store.

package api

// ContestListRequest holds the validated query parameters of GET /contests
// and GET /contests/upcoming.
type ContestListRequest struct {
	Platform string `validate:"omitempty,platform"`
	Phase    string `validate:"omitempty,oneof=BEFORE CODING FINISHED"`
	Limit    int    `validate:"min=1,max=500"`
	Offset   int    `validate:"min=0,max=1000000"`
}

// NotificationListRequest holds the validated query parameters of
// GET /notifications.
type NotificationListRequest struct {
	UserID int64 `validate:"required,gt=0"`
	Limit  int   `validate:"min=1,max=500"`
}

// SyncPlatformRequest holds the validated path parameter of
// POST /admin/sync/{platform}.
type SyncPlatformRequest struct {
	Platform string `validate:"required,platform"`
}

// RedeliverRequest holds the validated path parameter of
// POST /admin/notifications/{id}/redeliver.
type RedeliverRequest struct {
	ID string `validate:"required,uuid"`
}
