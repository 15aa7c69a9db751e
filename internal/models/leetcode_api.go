// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
leetcode_api.go - LeetCode GraphQL payload types

LeetCode has no public REST API for contests; the schedule is fetched from
the GraphQL endpoint at https://leetcode.com/graphql with the allContests
query. The endpoint requires Origin and Referer headers matching
leetcode.com or it answers 403.
*/

package models

// LeetCodeGraphQLRequest is the request body sent to the GraphQL endpoint.
type LeetCodeGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// LeetCodeContestsResponse is the GraphQL response for the allContests query.
type LeetCodeContestsResponse struct {
	Data   LeetCodeContestsData   `json:"data"`
	Errors []LeetCodeGraphQLError `json:"errors,omitempty"`
}

// LeetCodeContestsData wraps the contest list.
type LeetCodeContestsData struct {
	AllContests []LeetCodeContest `json:"allContests"`
}

// LeetCodeGraphQLError is one GraphQL-level error entry.
type LeetCodeGraphQLError struct {
	Message string `json:"message"`
}

// LeetCodeContest is one contest from the allContests query.
// StartTime is Unix epoch seconds and Duration is in seconds.
type LeetCodeContest struct {
	Title           string `json:"title"`
	TitleSlug       string `json:"titleSlug"`
	StartTime       int64  `json:"startTime"`
	Duration        int64  `json:"duration"`
	OriginStartTime int64  `json:"originStartTime,omitempty"`
	IsVirtual       bool   `json:"isVirtual,omitempty"`
}
