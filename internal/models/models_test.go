// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package models

import (
	"testing"
	"time"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"CODEFORCES", PlatformCodeforces, false},
		{"codeforces", PlatformCodeforces, false},
		{"LEETCODE", PlatformLeetCode, false},
		{"leetcode", PlatformLeetCode, false},
		{"CODECHEF", PlatformCodeChef, false},
		{"ATCODER", PlatformAtCoder, false},
		{"atcoder", PlatformAtCoder, false},
		{"topcoder", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlatform(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlatformValid(t *testing.T) {
	for _, p := range AllPlatforms() {
		if !p.Valid() {
			t.Errorf("platform %q should be valid", p)
		}
	}
	if Platform("HACKERRANK").Valid() {
		t.Error("unknown platform should not be valid")
	}
}

func TestPhaseAt(t *testing.T) {
	start := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before start", start.Add(-time.Hour), PhaseBefore},
		{"exactly at start", start, PhaseCoding},
		{"mid contest", start.Add(time.Hour), PhaseCoding},
		{"exactly at end", end, PhaseFinished},
		{"after end", end.Add(time.Hour), PhaseFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseAt(start, end, tt.now); got != tt.want {
				t.Errorf("PhaseAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackedFieldsEqual(t *testing.T) {
	base := func() *Contest {
		return &Contest{
			Platform:        PlatformCodeforces,
			PlatformID:      "2042",
			Name:            "Codeforces Round 990",
			Phase:           PhaseBefore,
			Type:            ContestTypeCF,
			StartTime:       time.Date(2026, 9, 1, 17, 35, 0, 0, time.UTC),
			EndTime:         time.Date(2026, 9, 1, 19, 35, 0, 0, time.UTC),
			DurationMinutes: 120,
		}
	}

	a, b := base(), base()
	if !TrackedFieldsEqual(a, b) {
		t.Fatal("identical contests should compare equal")
	}

	// Store-owned fields must not affect the comparison.
	b.ID = 42
	b.IsNotified = true
	b.IsActive = true
	b.CreatedAt = time.Now()
	if !TrackedFieldsEqual(a, b) {
		t.Error("store-owned fields should be ignored")
	}

	b = base()
	b.Name = "Codeforces Round 990 (Div. 2)"
	if TrackedFieldsEqual(a, b) {
		t.Error("name change should be detected")
	}

	b = base()
	b.StartTime = b.StartTime.Add(time.Hour)
	if TrackedFieldsEqual(a, b) {
		t.Error("start time change should be detected")
	}
}

func TestUserSubscribedTo(t *testing.T) {
	u := &User{
		Prefs: UserPreferences{
			Platforms: []Platform{PlatformCodeforces, PlatformAtCoder},
		},
	}

	if !u.SubscribedTo(PlatformCodeforces) {
		t.Error("should be subscribed to codeforces")
	}
	if u.SubscribedTo(PlatformLeetCode) {
		t.Error("should not be subscribed to leetcode")
	}
}

func TestUserEnabledChannels(t *testing.T) {
	u := &User{
		Email: "alice@example.com",
		Phone: "+15550001111",
		Prefs: UserPreferences{
			Channels: map[ChannelName]bool{
				ChannelEmail:    true,
				ChannelWhatsApp: false,
				ChannelWebhook:  true,
			},
		},
	}

	got := u.EnabledChannels()
	want := []ChannelName{ChannelEmail, ChannelWebhook}
	if len(got) != len(want) {
		t.Fatalf("EnabledChannels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EnabledChannels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUserChannelTarget(t *testing.T) {
	u := &User{ID: 42, Email: "alice@example.com", Phone: "+15550001111"}

	if got := u.ChannelTarget(ChannelEmail); got != "alice@example.com" {
		t.Errorf("email target = %q", got)
	}
	if got := u.ChannelTarget(ChannelWhatsApp); got != "+15550001111" {
		t.Errorf("whatsapp target = %q", got)
	}
	// The webhook endpoint is global; the target identifies the user to it.
	if got := u.ChannelTarget(ChannelWebhook); got != "42" {
		t.Errorf("webhook target = %q, want user id", got)
	}
	if got := u.ChannelTarget(ChannelName("pager")); got != "" {
		t.Errorf("unknown channel target = %q, want empty", got)
	}
}

func TestNotificationTerminal(t *testing.T) {
	n := &Notification{Status: NotificationPending}
	if n.Terminal() {
		t.Error("pending should not be terminal")
	}
	n.Status = NotificationSent
	if !n.Terminal() {
		t.Error("sent should be terminal")
	}
	n.Status = NotificationFailed
	if !n.Terminal() {
		t.Error("failed should be terminal")
	}
}

func TestSyncResultTotal(t *testing.T) {
	r := SyncResult{Synced: 3, Updated: 2, Failed: 1}
	if r.Total() != 6 {
		t.Errorf("Total() = %d, want 6", r.Total())
	}
}
