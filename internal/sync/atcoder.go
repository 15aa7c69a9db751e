// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/models"
)

// atcoderWindow bounds which contests from the archive are kept. The mirror
// publishes every contest since 2012; only the ones near now matter.
const atcoderWindow = 30 * 24 * time.Hour

// AtCoderAdapter fetches the contest archive from the AtCoder Problems
// mirror and keeps contests within atcoderWindow of now.
type AtCoderAdapter struct {
	client *platformClient

	// now is swappable for tests.
	now func() time.Time
}

// NewAtCoderAdapter creates an AtCoder adapter.
func NewAtCoderAdapter(cfg config.PlatformConfig, userAgent string) *AtCoderAdapter {
	return &AtCoderAdapter{
		client: newPlatformClient(cfg, userAgent),
		now:    time.Now,
	}
}

// Platform implements Adapter.
func (a *AtCoderAdapter) Platform() models.Platform {
	return models.PlatformAtCoder
}

// Fetch implements Adapter.
func (a *AtCoderAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	body, err := a.client.get(ctx, "")
	if err != nil {
		return nil, err
	}

	var contests []models.AtCoderContest
	if err := json.Unmarshal(body, &contests); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	now := a.now().UTC()
	lo, hi := now.Add(-atcoderWindow), now.Add(atcoderWindow)

	result := &FetchResult{}
	for i := range contests {
		in := &contests[i]
		start := time.Unix(in.StartEpochSecond, 0).UTC()
		if start.Before(lo) || start.After(hi) {
			continue
		}
		c, err := mapAtCoderContest(in, now)
		if err != nil {
			result.Dropped++
			logging.Warn().Err(err).Str("platform", "ATCODER").Msg("Dropping unmappable contest")
			continue
		}
		result.Contests = append(result.Contests, c)
	}
	return result, nil
}

// mapAtCoderContest normalizes one AtCoder contest.
func mapAtCoderContest(in *models.AtCoderContest, now time.Time) (*models.Contest, error) {
	if in.ID == "" {
		return nil, &NormalizationError{PlatformID: "", Reason: "missing contest id"}
	}
	if in.StartEpochSecond <= 0 {
		return nil, &NormalizationError{PlatformID: in.ID, Reason: "missing start time"}
	}
	if in.DurationSecond <= 0 {
		return nil, &NormalizationError{PlatformID: in.ID, Reason: "non-positive duration"}
	}

	start := time.Unix(in.StartEpochSecond, 0).UTC()
	end := start.Add(time.Duration(in.DurationSecond) * time.Second)

	var meta map[string]any
	if in.RateChange != "" {
		meta = map[string]any{"rate_change": in.RateChange}
	}

	return &models.Contest{
		Platform:         models.PlatformAtCoder,
		PlatformID:       in.ID,
		Name:             in.Title,
		Phase:            models.PhaseAt(start, end, now),
		Type:             mapAtCoderType(in.ID),
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  minutesBetween(start, end),
		URL:              "https://atcoder.jp/contests/" + in.ID,
		PlatformMetadata: meta,
	}, nil
}

// mapAtCoderType derives the contest series from the id prefix.
func mapAtCoderType(id string) models.ContestType {
	switch {
	case strings.HasPrefix(id, "abc"):
		return models.ContestTypeABC
	case strings.HasPrefix(id, "arc"):
		return models.ContestTypeARC
	case strings.HasPrefix(id, "agc"):
		return models.ContestTypeAGC
	case strings.HasPrefix(id, "ahc"):
		return models.ContestTypeAHC
	default:
		return models.ContestTypeOther
	}
}
