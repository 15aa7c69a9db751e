// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/models"
)

// Store is the database surface the read endpoints use.
type Store interface {
	Ping(ctx context.Context) error
	ListContests(ctx context.Context, f database.ContestFilter) ([]*models.Contest, error)
	GetContestByID(ctx context.Context, id int64) (*models.Contest, error)
	CountContests(ctx context.Context) (int64, error)
	ListNotificationsForUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	CountNotificationsByStatus(ctx context.Context) (map[models.NotificationStatus]int64, error)
	ListFailedNotifications(ctx context.Context, since time.Time) ([]*models.Notification, error)
}

// SyncManager is the admin trigger surface. Implemented by sync.Manager.
type SyncManager interface {
	TriggerSync(ctx context.Context, force bool) (map[models.Platform]models.SyncResult, error)
	SyncPlatform(ctx context.Context, platform models.Platform, force bool) (models.SyncResult, error)
	RunCleanup(ctx context.Context) (int64, error)
	LastSyncTime() time.Time
	Platforms() []models.Platform
}

// Redeliverer re-sends failed notifications. Implemented by
// notify.Dispatcher.
type Redeliverer interface {
	Redeliver(ctx context.Context, notificationID string) (*models.Notification, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	store       Store
	syncManager SyncManager
	redeliverer Redeliverer
	cfg         *config.Config
	startTime   time.Time
}

// NewHandler creates the handler set. syncManager and redeliverer may be nil
// when the corresponding subsystem is disabled; the endpoints then respond
// 503.
func NewHandler(store Store, syncManager SyncManager, redeliverer Redeliverer, cfg *config.Config) *Handler {
	return &Handler{
		store:       store,
		syncManager: syncManager,
		redeliverer: redeliverer,
		cfg:         cfg,
		startTime:   time.Now(),
	}
}

// getIntParam reads an integer query parameter, falling back to def when
// absent or unparseable.
func getIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// getBoolParam reads a boolean query parameter.
func getBoolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// pageLimit applies the configured default and maximum page sizes.
func (h *Handler) pageLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = h.cfg.API.DefaultPageSize
	}
	if max := h.cfg.API.MaxPageSize; max > 0 && limit > max {
		limit = max
	}
	return limit
}
