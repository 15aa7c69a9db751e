// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
atcoder_api.go - AtCoder contest payload types

AtCoder itself has no JSON API for its contest calendar; the community
AtCoder Problems mirror at https://kenkoooo.com/atcoder/resources/contests.json
publishes the full contest archive as a flat JSON array. The adapter filters
it to a bounded window around now.
*/

package models

// AtCoderContest is one contest entry from the AtCoder Problems resource.
// Times are Unix epoch seconds. RateChange encodes the rated range
// (e.g. " ~ 1999", "All", "-" for unrated).
type AtCoderContest struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	StartEpochSecond int64  `json:"start_epoch_second"`
	DurationSecond   int64  `json:"duration_second"`
	RateChange       string `json:"rate_change"`
}
