// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package schedule provides cron expression parsing for the sync and
// cleanup loops.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cron is a parsed 5-field cron expression:
// minute hour day-of-month month day-of-week.
// Each field is a bit set: bit n set means value n matches.
type Cron struct {
	minutes uint64 // 0-59
	hours   uint64 // 0-23
	dom     uint64 // 1-31
	months  uint64 // 1-12
	dow     uint64 // 0-6, Sunday = 0

	// domStar and dowStar record whether the field was "*". Standard cron
	// ORs day-of-month with day-of-week only when both are restricted.
	domStar bool
	dowStar bool
}

// ParseCron parses a standard 5-field cron expression.
//
// Supported syntax per field: "*", single values, ranges (n-m), lists
// (n,m,o), and steps (*/s, n-m/s).
//
//	"0 */6 * * *"  - every 6 hours on the hour
//	"0 2 * * *"    - daily at 02:00
//	"*/15 * * * *" - every 15 minutes
func ParseCron(expr string) (*Cron, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	minutes, err := parseField(fields[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("invalid minute field: %w", err)
	}
	hours, err := parseField(fields[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("invalid hour field: %w", err)
	}
	dom, err := parseField(fields[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("invalid day-of-month field: %w", err)
	}
	months, err := parseField(fields[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("invalid month field: %w", err)
	}
	dow, err := parseField(fields[4], 0, 7)
	if err != nil {
		return nil, fmt.Errorf("invalid day-of-week field: %w", err)
	}

	// Fold 7 (Sunday) onto 0.
	if dow&(1<<7) != 0 {
		dow = (dow &^ (1 << 7)) | 1
	}

	return &Cron{
		minutes: minutes,
		hours:   hours,
		dom:     dom,
		months:  months,
		dow:     dow,
		domStar: fields[2] == "*",
		dowStar: fields[4] == "*",
	}, nil
}

// Next returns the first time strictly after the given time that matches
// the expression, evaluated in that time's location. The zero time is
// returned if no match exists within four years, which cannot happen for
// a parseable expression.
func (c *Cron) Next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)

	// 4 years of minutes bounds the scan.
	const maxMinutes = 4 * 366 * 24 * 60
	for i := 0; i < maxMinutes; i++ {
		if c.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

// matches reports whether t satisfies the expression.
func (c *Cron) matches(t time.Time) bool {
	if c.minutes&(1<<uint(t.Minute())) == 0 {
		return false
	}
	if c.hours&(1<<uint(t.Hour())) == 0 {
		return false
	}
	if c.months&(1<<uint(t.Month())) == 0 {
		return false
	}

	domMatch := c.dom&(1<<uint(t.Day())) != 0
	dowMatch := c.dow&(1<<uint(t.Weekday())) != 0

	switch {
	case c.domStar && c.dowStar:
		return true
	case c.domStar:
		return dowMatch
	case c.dowStar:
		return domMatch
	default:
		// Both restricted: standard cron ORs them.
		return domMatch || dowMatch
	}
}

// parseField parses one cron field into a bit set over [minVal, maxVal].
func parseField(field string, minVal, maxVal int) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		bits, err := parseFieldPart(part, minVal, maxVal)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	if set == 0 {
		return 0, fmt.Errorf("empty field %q", field)
	}
	return set, nil
}

// parseFieldPart parses a single list element: "*", "n", "n-m", "*/s",
// "n/s", or "n-m/s".
func parseFieldPart(part string, minVal, maxVal int) (uint64, error) {
	step := 1
	if idx := strings.IndexByte(part, '/'); idx >= 0 {
		s, err := strconv.Atoi(part[idx+1:])
		if err != nil || s <= 0 {
			return 0, fmt.Errorf("invalid step value: %s", part[idx+1:])
		}
		step = s
		part = part[:idx]
	}

	start, end := minVal, maxVal
	switch {
	case part == "*":
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)
		var err error
		if start, err = strconv.Atoi(bounds[0]); err != nil {
			return 0, fmt.Errorf("invalid range start: %s", bounds[0])
		}
		if end, err = strconv.Atoi(bounds[1]); err != nil {
			return 0, fmt.Errorf("invalid range end: %s", bounds[1])
		}
		if start > end {
			return 0, fmt.Errorf("invalid range: %d-%d", start, end)
		}
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid value: %s", part)
		}
		start = v
		if step == 1 {
			end = v
		}
		// "n/s" means n through field max with the given step.
	}

	if start < minVal || end > maxVal {
		return 0, fmt.Errorf("value out of range: %d-%d (allowed %d-%d)", start, end, minVal, maxVal)
	}

	var set uint64
	for v := start; v <= end; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

// NextAfter parses expr and returns the next match after the given time.
func NextAfter(expr string, after time.Time) (time.Time, error) {
	c, err := ParseCron(expr)
	if err != nil {
		return time.Time{}, err
	}
	return c.Next(after), nil
}
