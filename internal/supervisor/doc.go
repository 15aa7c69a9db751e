// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package supervisor builds the suture supervision tree for CodeNotify.
//
// The tree has a root supervisor with two child layers: jobs (sync
// manager, notification scheduler, notification dispatcher) and api
// (HTTP server). Services crash-restart independently within their
// layer, so a misbehaving platform client cannot take the read API
// offline.
//
// Supervisor events are logged through sutureslog, bridged to the
// application's zerolog output via logging.NewSlogLogger.
package supervisor
