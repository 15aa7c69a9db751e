// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/yksingh/codenotify/internal/models"
)

// Subject builds the reminder subject line for a contest.
func Subject(c *models.Contest, now time.Time) string {
	return fmt.Sprintf("%s starts in %s", c.Name, formatLeadTime(c.TimeToStart(now)))
}

// Body builds the plaintext reminder body.
func Body(c *models.Contest, u *models.User, now time.Time) string {
	var b strings.Builder

	name := u.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "%s on %s starts in %s.\n\n", c.Name, platformLabel(c.Platform), formatLeadTime(c.TimeToStart(now)))
	fmt.Fprintf(&b, "Start: %s\n", c.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"))
	fmt.Fprintf(&b, "Duration: %s\n", formatLeadTime(time.Duration(c.DurationMinutes)*time.Minute))
	if c.URL != "" {
		fmt.Fprintf(&b, "Link: %s\n", c.URL)
	}
	b.WriteString("\nGood luck!\nCodeNotify")

	return b.String()
}

// ShortText builds the single-line reminder used by WhatsApp.
func ShortText(c *models.Contest, now time.Time) string {
	text := fmt.Sprintf("%s on %s starts in %s", c.Name, platformLabel(c.Platform), formatLeadTime(c.TimeToStart(now)))
	if c.URL != "" {
		text += " - " + c.URL
	}
	return text
}

func platformLabel(p models.Platform) string {
	switch p {
	case models.PlatformCodeforces:
		return "Codeforces"
	case models.PlatformLeetCode:
		return "LeetCode"
	case models.PlatformCodeChef:
		return "CodeChef"
	case models.PlatformAtCoder:
		return "AtCoder"
	default:
		return string(p)
	}
}
