// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/metrics"
	"github.com/yksingh/codenotify/internal/models"
)

// breakerAdapter wraps an Adapter with a circuit breaker so a platform that
// keeps failing stops being hammered for a while. Each platform gets its own
// breaker; one platform tripping never affects the others.
//
// The breaker uses real time for its interval and timeout calculations. The
// timing only determines when to probe for recovery, not data integrity;
// tests exercise the wrapped adapter directly.
type breakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker[*FetchResult]
	name  string
}

// withBreaker wraps an adapter with a per-platform circuit breaker.
// Configuration:
//   - Max 3 requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func withBreaker(inner Adapter) Adapter {
	name := string(inner.Platform())

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*FetchResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Str("platform", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := breakerStateString(from), breakerStateString(to)
			logging.Info().Str("platform", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &breakerAdapter{inner: inner, cb: cb, name: name}
}

// Platform implements Adapter.
func (b *breakerAdapter) Platform() models.Platform {
	return b.inner.Platform()
}

// Fetch implements Adapter. A rejected request (open circuit) surfaces as
// ErrUpstreamUnavailable so the caller's retry classification still applies.
func (b *breakerAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	result, err := b.cb.Execute(func() (*FetchResult, error) {
		return b.inner.Fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: circuit open for %s", ErrUpstreamUnavailable, b.name)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
