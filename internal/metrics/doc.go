// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments the main moving parts of the service:
  - HTTP request latency and throughput
  - Database query performance (DuckDB)
  - Per-platform sync outcomes and durations
  - Notification dispatch by channel and result
  - Circuit breaker state transitions
  - Staleness cache hit/miss rates

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

All collectors are registered with the default registry via promauto at
package init, so importing the package is enough to make them visible.
*/
package metrics
