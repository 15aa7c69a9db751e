// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
adapter.go - Platform adapter contract and shared HTTP plumbing

Each supported platform implements Adapter: fetch the upstream schedule and
return contests already normalized to the shared model. Platform-level
failures (network, malformed payload) come back as an error classified by
errors.go; record-level normalization failures are swallowed into
FetchResult.Dropped so one bad record never sinks the batch.
*/

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/models"
)

// maxResponseBody caps how much of an upstream response is read.
const maxResponseBody = 8 << 20 // 8MB

// FetchResult is the outcome of one platform fetch.
type FetchResult struct {
	// Contests are normalized and ready for reconciliation.
	Contests []*models.Contest

	// Dropped counts upstream records that failed normalization.
	Dropped int
}

// Adapter fetches and normalizes one platform's contest schedule.
type Adapter interface {
	Platform() models.Platform
	Fetch(ctx context.Context) (*FetchResult, error)
}

// platformClient is the shared HTTP layer under every adapter: one
// http.Client with the configured timeout, a request rate limiter, and the
// common User-Agent header.
type platformClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

func newPlatformClient(cfg config.PlatformConfig, userAgent string) *platformClient {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}
	return &platformClient{
		baseURL:   cfg.BaseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// do runs one rate-limited request and returns the response body. Network
// errors and 5xx map to ErrUpstreamUnavailable; other non-200 statuses map
// to ErrUpstreamMalformed.
func (c *platformClient) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamMalformed, resp.StatusCode)
	}
	return body, nil
}

// get runs a rate-limited GET against the client's base URL plus path.
func (c *platformClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// minutesBetween converts a start/end pair to whole minutes.
func minutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}
