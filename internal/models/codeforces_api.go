// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
codeforces_api.go - Codeforces API payload types

Codeforces exposes a JSON API at https://codeforces.com/api. Contest data
comes from the contest.list method, which wraps its result in a status
envelope: {"status": "OK", "result": [...]}.

API Reference: https://codeforces.com/apiHelp/objects#Contest
*/

package models

// CodeforcesContestList is the envelope returned by contest.list.
// Status is "OK" on success; anything else carries Comment as the reason.
type CodeforcesContestList struct {
	Status  string              `json:"status"`
	Comment string              `json:"comment,omitempty"`
	Result  []CodeforcesContest `json:"result"`
}

// CodeforcesContest is one contest object from the Codeforces API.
// Times are Unix epoch seconds; RelativeTimeSeconds is negative before the
// contest starts.
type CodeforcesContest struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`  // CF, IOI, ICPC
	Phase               string `json:"phase"` // BEFORE, CODING, PENDING_SYSTEM_TEST, SYSTEM_TEST, FINISHED
	Frozen              bool   `json:"frozen"`
	DurationSeconds     int64  `json:"durationSeconds"`
	StartTimeSeconds    int64  `json:"startTimeSeconds"`
	RelativeTimeSeconds int64  `json:"relativeTimeSeconds"`
	PreparedBy          string `json:"preparedBy,omitempty"`
	WebsiteURL          string `json:"websiteUrl,omitempty"`
	Description         string `json:"description,omitempty"`
	Difficulty          int    `json:"difficulty,omitempty"`
	Kind                string `json:"kind,omitempty"`
	Country             string `json:"country,omitempty"`
	City                string `json:"city,omitempty"`
}
