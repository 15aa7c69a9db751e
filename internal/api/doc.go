// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package api provides the HTTP surface using the Chi router.
//
// Read endpoints (contests, notifications, health) are rate limited per
// client IP. Mutation endpoints under /api/v1/admin (manual sync, cleanup,
// redelivery) additionally require a JWT bearer token with the admin role
// unless auth is disabled for development.
//
// All endpoints respond with the APIResponse envelope: success flag, data or
// error, and metadata with request ID and timing. Sync failures surface in
// explicit per-platform error fields and failed counts, never as a bare 200.
package api
