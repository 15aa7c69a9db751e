// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package models defines the shared data types used across CodeNotify:
// contests, users, notification records, and the API response envelope.
package models

import (
	"fmt"
	"time"
)

// Platform identifies a supported competitive-programming site.
type Platform string

// Supported platforms.
const (
	PlatformCodeforces Platform = "CODEFORCES"
	PlatformLeetCode   Platform = "LEETCODE"
	PlatformCodeChef   Platform = "CODECHEF"
	PlatformAtCoder    Platform = "ATCODER"
)

// AllPlatforms lists every supported platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformCodeforces,
		PlatformLeetCode,
		PlatformCodeChef,
		PlatformAtCoder,
	}
}

// ParsePlatform converts a case-insensitive platform name to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch s {
	case "CODEFORCES", "codeforces":
		return PlatformCodeforces, nil
	case "LEETCODE", "leetcode":
		return PlatformLeetCode, nil
	case "CODECHEF", "codechef":
		return PlatformCodeChef, nil
	case "ATCODER", "atcoder":
		return PlatformAtCoder, nil
	default:
		return "", fmt.Errorf("unknown platform: %q", s)
	}
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformCodeforces, PlatformLeetCode, PlatformCodeChef, PlatformAtCoder:
		return true
	default:
		return false
	}
}

// Phase is the lifecycle stage of a contest.
type Phase string

// Contest phases.
const (
	PhaseBefore   Phase = "BEFORE"
	PhaseCoding   Phase = "CODING"
	PhaseFinished Phase = "FINISHED"
)

// PhaseAt derives the phase of a contest from its start/end times relative
// to now. Sources that supply an authoritative phase override this.
func PhaseAt(start, end, now time.Time) Phase {
	switch {
	case now.Before(start):
		return PhaseBefore
	case now.Before(end):
		return PhaseCoding
	default:
		return PhaseFinished
	}
}

// ContestType is the platform-specific contest category.
type ContestType string

// Contest types across all platforms. Each platform maps its own vocabulary
// into this shared set during normalization.
const (
	ContestTypeCF        ContestType = "CF"
	ContestTypeICPC      ContestType = "ICPC"
	ContestTypeIOI       ContestType = "IOI"
	ContestTypeWeekly    ContestType = "WEEKLY"
	ContestTypeBiweekly  ContestType = "BIWEEKLY"
	ContestTypeLong      ContestType = "LONG"
	ContestTypeCookOff   ContestType = "COOKOFF"
	ContestTypeLunchtime ContestType = "LUNCHTIME"
	ContestTypeABC       ContestType = "ABC"
	ContestTypeARC       ContestType = "ARC"
	ContestTypeAGC       ContestType = "AGC"
	ContestTypeAHC       ContestType = "AHC"
	ContestTypeOther     ContestType = "OTHER"
)

// Contest represents one scheduled competitive-programming event.
//
// (Platform, PlatformID) is the natural key: it is unique across the store
// and drives reconciliation. ID is a surrogate assigned on first insert.
type Contest struct {
	ID               int64          `json:"id"`
	Platform         Platform       `json:"platform"`
	PlatformID       string         `json:"platform_id"`
	Name             string         `json:"name"`
	Phase            Phase          `json:"phase"`
	Type             ContestType    `json:"type"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	DurationMinutes  int            `json:"duration_minutes"`
	ParticipantCount int            `json:"participant_count"`
	ProblemCount     int            `json:"problem_count"`
	Description      string         `json:"description,omitempty"`
	URL              string         `json:"url,omitempty"`
	PlatformMetadata map[string]any `json:"platform_metadata,omitempty"`

	// IsActive is a soft-delete flag: cleared when the source stops
	// reporting an upcoming contest.
	IsActive bool `json:"is_active"`

	// IsNotified guards at-most-once notification dispatch. One-way: a
	// later start-time change does not re-arm notification.
	IsNotified bool `json:"is_notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the natural key of the contest.
func (c *Contest) Key() ContestKey {
	return ContestKey{Platform: c.Platform, PlatformID: c.PlatformID}
}

// TimeToStart returns how far in the future the contest starts.
// Negative once the contest has begun.
func (c *Contest) TimeToStart(now time.Time) time.Duration {
	return c.StartTime.Sub(now)
}

// ContestKey is the natural key (platform, platform_id) of a contest.
type ContestKey struct {
	Platform   Platform
	PlatformID string
}

func (k ContestKey) String() string {
	return string(k.Platform) + "/" + k.PlatformID
}

// TrackedFieldsEqual reports whether the sync-owned fields of two contests
// are identical. Store-owned fields (ID, IsNotified, IsActive, timestamps)
// are deliberately excluded: the reconciler must not clobber them.
func TrackedFieldsEqual(a, b *Contest) bool {
	return a.Name == b.Name &&
		a.Phase == b.Phase &&
		a.Type == b.Type &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime) &&
		a.DurationMinutes == b.DurationMinutes &&
		a.ParticipantCount == b.ParticipantCount &&
		a.ProblemCount == b.ProblemCount &&
		a.Description == b.Description &&
		a.URL == b.URL
}

// SyncResult reports the outcome of reconciling one platform's contests.
type SyncResult struct {
	// Synced is the number of contests inserted for the first time.
	Synced int `json:"synced"`

	// Updated is the number of existing contests whose tracked fields changed.
	Updated int `json:"updated"`

	// Failed is the number of contests that could not be normalized or stored.
	Failed int `json:"failed"`

	// Error is set when the platform as a whole failed (adapter unreachable,
	// payload unparseable). Per-record failures only increment Failed.
	Error string `json:"error,omitempty"`
}

// Total returns the number of contests the sync touched.
func (r SyncResult) Total() int {
	return r.Synced + r.Updated + r.Failed
}
