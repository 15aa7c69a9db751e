// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package middleware provides infrastructure HTTP middleware: request ID
// tracking, Prometheus request instrumentation and gzip compression. The
// routing-level middleware (CORS, rate limiting, auth) lives in internal/api
// next to the router that configures it.
package middleware
