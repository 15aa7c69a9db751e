// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
codechef_api.go - CodeChef API payload types

CodeChef's contest list endpoint at
https://www.codechef.com/api/list/contests/all splits contests into
future/present/past buckets. Dates come in both a human-readable form and an
ISO 8601 form; only the ISO fields are parsed here.
*/

package models

// CodeChefContestList is the response of the list/contests/all endpoint.
type CodeChefContestList struct {
	Status          string            `json:"status"`
	Message         string            `json:"message,omitempty"`
	PresentContests []CodeChefContest `json:"present_contests"`
	FutureContests  []CodeChefContest `json:"future_contests"`
	PastContests    []CodeChefContest `json:"past_contests"`
}

// CodeChefContest is one contest entry from any of the three buckets.
type CodeChefContest struct {
	ContestCode         string `json:"contest_code"`
	ContestName         string `json:"contest_name"`
	ContestStartDate    string `json:"contest_start_date,omitempty"`
	ContestEndDate      string `json:"contest_end_date,omitempty"`
	ContestStartDateISO string `json:"contest_start_date_iso"`
	ContestEndDateISO   string `json:"contest_end_date_iso"`
	ContestDuration     string `json:"contest_duration,omitempty"` // minutes, as a string
	DistinctUsers       int    `json:"distinct_users,omitempty"`
}
