// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/models"
)

// CodeforcesAdapter fetches the contest schedule from the Codeforces API
// (contest.list method).
type CodeforcesAdapter struct {
	client *platformClient
}

// NewCodeforcesAdapter creates a Codeforces adapter.
func NewCodeforcesAdapter(cfg config.PlatformConfig, userAgent string) *CodeforcesAdapter {
	return &CodeforcesAdapter{client: newPlatformClient(cfg, userAgent)}
}

// Platform implements Adapter.
func (a *CodeforcesAdapter) Platform() models.Platform {
	return models.PlatformCodeforces
}

// Fetch implements Adapter.
func (a *CodeforcesAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	body, err := a.client.get(ctx, "/contest.list")
	if err != nil {
		return nil, err
	}

	var list models.CodeforcesContestList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	if list.Status != "OK" {
		return nil, fmt.Errorf("%w: api status %q: %s", ErrUpstreamMalformed, list.Status, list.Comment)
	}

	result := &FetchResult{}
	for i := range list.Result {
		c, err := mapCodeforcesContest(&list.Result[i])
		if err != nil {
			result.Dropped++
			logging.Warn().Err(err).Str("platform", "CODEFORCES").Msg("Dropping unmappable contest")
			continue
		}
		result.Contests = append(result.Contests, c)
	}
	return result, nil
}

// mapCodeforcesContest normalizes one Codeforces contest.
func mapCodeforcesContest(in *models.CodeforcesContest) (*models.Contest, error) {
	if in.ID == 0 {
		return nil, &NormalizationError{PlatformID: "", Reason: "missing contest id"}
	}
	platformID := strconv.Itoa(in.ID)
	if in.Name == "" {
		return nil, &NormalizationError{PlatformID: platformID, Reason: "missing name"}
	}
	// Gym and unscheduled contests come without a start time.
	if in.StartTimeSeconds == 0 {
		return nil, &NormalizationError{PlatformID: platformID, Reason: "missing start time"}
	}
	if in.DurationSeconds <= 0 {
		return nil, &NormalizationError{PlatformID: platformID, Reason: "non-positive duration"}
	}

	start := time.Unix(in.StartTimeSeconds, 0).UTC()
	end := start.Add(time.Duration(in.DurationSeconds) * time.Second)

	meta := map[string]any{"frozen": in.Frozen}
	if in.Kind != "" {
		meta["kind"] = in.Kind
	}
	if in.Difficulty > 0 {
		meta["difficulty"] = in.Difficulty
	}
	if in.PreparedBy != "" {
		meta["prepared_by"] = in.PreparedBy
	}

	return &models.Contest{
		Platform:         models.PlatformCodeforces,
		PlatformID:       platformID,
		Name:             in.Name,
		Phase:            mapCodeforcesPhase(in.Phase),
		Type:             mapCodeforcesType(in.Type),
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  minutesBetween(start, end),
		Description:      in.Description,
		URL:              "https://codeforces.com/contests/" + platformID,
		PlatformMetadata: meta,
	}, nil
}

// mapCodeforcesPhase folds the Codeforces phase vocabulary onto the shared
// three-phase model. System testing happens after coding ends, so both
// system-test phases count as finished.
func mapCodeforcesPhase(phase string) models.Phase {
	switch phase {
	case "BEFORE":
		return models.PhaseBefore
	case "CODING":
		return models.PhaseCoding
	default: // PENDING_SYSTEM_TEST, SYSTEM_TEST, FINISHED
		return models.PhaseFinished
	}
}

func mapCodeforcesType(t string) models.ContestType {
	switch t {
	case "CF":
		return models.ContestTypeCF
	case "ICPC":
		return models.ContestTypeICPC
	case "IOI":
		return models.ContestTypeIOI
	default:
		return models.ContestTypeOther
	}
}
