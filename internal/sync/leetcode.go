// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/models"
)

// allContestsQuery is the GraphQL query for the full contest list.
const allContestsQuery = `query {
  allContests {
    title
    titleSlug
    startTime
    duration
    originStartTime
    isVirtual
  }
}`

// LeetCodeAdapter fetches the contest schedule from the LeetCode GraphQL
// endpoint. The endpoint rejects requests without Origin/Referer headers
// matching leetcode.com.
type LeetCodeAdapter struct {
	client *platformClient
}

// NewLeetCodeAdapter creates a LeetCode adapter.
func NewLeetCodeAdapter(cfg config.PlatformConfig, userAgent string) *LeetCodeAdapter {
	return &LeetCodeAdapter{client: newPlatformClient(cfg, userAgent)}
}

// Platform implements Adapter.
func (a *LeetCodeAdapter) Platform() models.Platform {
	return models.PlatformLeetCode
}

// Fetch implements Adapter.
func (a *LeetCodeAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	payload, err := json.Marshal(models.LeetCodeGraphQLRequest{Query: allContestsQuery})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://leetcode.com")
	req.Header.Set("Referer", "https://leetcode.com/contest/")

	body, err := a.client.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp models.LeetCodeContestsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql error: %s", ErrUpstreamMalformed, resp.Errors[0].Message)
	}

	result := &FetchResult{}
	for i := range resp.Data.AllContests {
		in := &resp.Data.AllContests[i]
		// Virtual contests are replays, not scheduled events.
		if in.IsVirtual {
			continue
		}
		c, err := mapLeetCodeContest(in)
		if err != nil {
			result.Dropped++
			logging.Warn().Err(err).Str("platform", "LEETCODE").Msg("Dropping unmappable contest")
			continue
		}
		result.Contests = append(result.Contests, c)
	}
	return result, nil
}

// mapLeetCodeContest normalizes one LeetCode contest.
func mapLeetCodeContest(in *models.LeetCodeContest) (*models.Contest, error) {
	if in.TitleSlug == "" {
		return nil, &NormalizationError{PlatformID: "", Reason: "missing title slug"}
	}
	if in.Title == "" {
		return nil, &NormalizationError{PlatformID: in.TitleSlug, Reason: "missing title"}
	}
	if in.StartTime <= 0 {
		return nil, &NormalizationError{PlatformID: in.TitleSlug, Reason: "missing start time"}
	}
	if in.Duration <= 0 {
		return nil, &NormalizationError{PlatformID: in.TitleSlug, Reason: "non-positive duration"}
	}

	start := time.Unix(in.StartTime, 0).UTC()
	end := start.Add(time.Duration(in.Duration) * time.Second)

	return &models.Contest{
		Platform:        models.PlatformLeetCode,
		PlatformID:      in.TitleSlug,
		Name:            in.Title,
		Phase:           models.PhaseAt(start, end, time.Now().UTC()),
		Type:            mapLeetCodeType(in.TitleSlug),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: minutesBetween(start, end),
		URL:             "https://leetcode.com/contest/" + in.TitleSlug,
	}, nil
}

// mapLeetCodeType derives the contest category from the slug; LeetCode runs
// weekly and biweekly contests.
func mapLeetCodeType(slug string) models.ContestType {
	switch {
	case strings.HasPrefix(slug, "biweekly"):
		return models.ContestTypeBiweekly
	case strings.HasPrefix(slug, "weekly"):
		return models.ContestTypeWeekly
	default:
		return models.ContestTypeOther
	}
}
