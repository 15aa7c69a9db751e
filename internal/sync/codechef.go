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

// CodeChefAdapter fetches the contest schedule from the CodeChef contest
// list endpoint. The endpoint buckets contests into future/present/past;
// the past bucket only carries the most recent twenty.
type CodeChefAdapter struct {
	client *platformClient
}

// NewCodeChefAdapter creates a CodeChef adapter.
func NewCodeChefAdapter(cfg config.PlatformConfig, userAgent string) *CodeChefAdapter {
	return &CodeChefAdapter{client: newPlatformClient(cfg, userAgent)}
}

// Platform implements Adapter.
func (a *CodeChefAdapter) Platform() models.Platform {
	return models.PlatformCodeChef
}

// Fetch implements Adapter.
func (a *CodeChefAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	body, err := a.client.get(ctx, "")
	if err != nil {
		return nil, err
	}

	var list models.CodeChefContestList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	if list.Status != "success" {
		return nil, fmt.Errorf("%w: api status %q: %s", ErrUpstreamMalformed, list.Status, list.Message)
	}

	result := &FetchResult{}
	buckets := []struct {
		contests []models.CodeChefContest
		phase    models.Phase
	}{
		{list.FutureContests, models.PhaseBefore},
		{list.PresentContests, models.PhaseCoding},
		{list.PastContests, models.PhaseFinished},
	}
	for _, bucket := range buckets {
		for i := range bucket.contests {
			c, err := mapCodeChefContest(&bucket.contests[i], bucket.phase)
			if err != nil {
				result.Dropped++
				logging.Warn().Err(err).Str("platform", "CODECHEF").Msg("Dropping unmappable contest")
				continue
			}
			result.Contests = append(result.Contests, c)
		}
	}
	return result, nil
}

// mapCodeChefContest normalizes one CodeChef contest from its bucket.
func mapCodeChefContest(in *models.CodeChefContest, phase models.Phase) (*models.Contest, error) {
	if in.ContestCode == "" {
		return nil, &NormalizationError{PlatformID: "", Reason: "missing contest code"}
	}
	start, err := time.Parse(time.RFC3339, in.ContestStartDateISO)
	if err != nil {
		return nil, &NormalizationError{PlatformID: in.ContestCode, Reason: "bad start date: " + in.ContestStartDateISO}
	}
	end, err := time.Parse(time.RFC3339, in.ContestEndDateISO)
	if err != nil {
		return nil, &NormalizationError{PlatformID: in.ContestCode, Reason: "bad end date: " + in.ContestEndDateISO}
	}
	if !end.After(start) {
		return nil, &NormalizationError{PlatformID: in.ContestCode, Reason: "end not after start"}
	}

	start, end = start.UTC(), end.UTC()

	var meta map[string]any
	if in.DistinctUsers > 0 {
		meta = map[string]any{"distinct_users": in.DistinctUsers}
	}

	return &models.Contest{
		Platform:         models.PlatformCodeChef,
		PlatformID:       in.ContestCode,
		Name:             in.ContestName,
		Phase:            phase,
		Type:             mapCodeChefType(in.ContestCode),
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  minutesBetween(start, end),
		ParticipantCount: in.DistinctUsers,
		URL:              "https://www.codechef.com/" + in.ContestCode,
		PlatformMetadata: meta,
	}, nil
}

// mapCodeChefType derives the contest category from the contest code prefix.
func mapCodeChefType(code string) models.ContestType {
	switch {
	case strings.HasPrefix(code, "START"):
		return models.ContestTypeWeekly // Starters
	case strings.HasPrefix(code, "COOK"):
		return models.ContestTypeCookOff
	case strings.HasPrefix(code, "LTIME"):
		return models.ContestTypeLunchtime
	case strings.HasPrefix(code, "LONG") || strings.HasPrefix(code, "JAN") ||
		strings.HasPrefix(code, "FEB") || strings.HasPrefix(code, "MAR"):
		return models.ContestTypeLong
	default:
		return models.ContestTypeOther
	}
}
