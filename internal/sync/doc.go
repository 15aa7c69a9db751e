// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
Package sync orchestrates contest synchronization from the supported
platforms into the database.

This package implements the core aggregation logic: fetching contest
schedules from Codeforces, LeetCode, CodeChef, and AtCoder, normalizing
each platform's payload into the shared contest model, and reconciling the
result against the store. It provides cron-driven periodic synchronization,
manual sync triggers, and circuit breaker protection per platform.

Key Components:

  - Manager: Orchestrates the sync and retention-cleanup loops
  - Adapter: Per-platform fetch-and-normalize contract (one file each)
  - Circuit Breaker: Automatic failure detection and recovery per platform
  - StalenessCache: Badger-backed freshness tracking so routine cycles skip
    platforms synced within the TTL
  - Retry: Exponential backoff for transient upstream failures

Reconciliation:

Fetched contests are matched against the store by their (platform,
platform_id) natural key. New keys insert, changed tracked fields update,
and identical records are skipped. Contests a source stops reporting before
their start are deactivated rather than deleted. Store-owned fields
(notification state, timestamps) are never clobbered by a sync.

Failure Isolation:

A platform-level failure (unreachable API, malformed payload) marks only
that platform's sync as failed; the other platforms in the same cycle are
unaffected. Record-level normalization failures are counted and logged
without failing the platform.
*/
package sync
