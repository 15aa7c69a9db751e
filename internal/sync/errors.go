// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying platform fetch failures. A platform-level
// failure marks the whole platform's sync as failed; other platforms in the
// same cycle are unaffected.
var (
	// ErrUpstreamUnavailable covers network errors, timeouts, and 5xx
	// responses. Transient: retried within the per-platform retry budget.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamMalformed covers unparseable payloads and API-level error
	// envelopes. Not retried: the same payload would fail again.
	ErrUpstreamMalformed = errors.New("upstream payload malformed")

	// ErrSyncInProgress is returned when a sync is requested while another
	// sync for the same scope is still running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrPlatformNotEnabled is returned for on-demand syncs of platforms
	// with no registered adapter.
	ErrPlatformNotEnabled = errors.New("platform is not enabled")
)

// NormalizationError describes one upstream record that could not be mapped
// to a contest. Record-level: it increments SyncResult.Failed without
// failing the platform.
type NormalizationError struct {
	PlatformID string
	Reason     string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize contest %q: %s", e.PlatformID, e.Reason)
}

// retryable reports whether a platform fetch error is worth retrying.
func retryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
