// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package validation provides request validation using go-playground/validator.
//
// The package exposes a thread-safe singleton validator (initialized once,
// cached struct info) plus error translation into the API's VALIDATION_ERROR
// response format. A custom "platform" tag validates contest platform names
// against the set the aggregator knows about.
//
// Uses WithRequiredStructEnabled option (v11+ compatibility).
package validation
