// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package models

import "strconv"

// User is a registered CodeNotify account as consumed by the notification
// core. The core treats users as read-only input selecting who is eligible
// for which contest reminder; account management lives elsewhere.
type User struct {
	ID       int64           `json:"id"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone,omitempty"`
	Name     string          `json:"name,omitempty"`
	IsActive bool            `json:"is_active"`
	Prefs    UserPreferences `json:"preferences"`
}

// UserPreferences selects which contests a user is reminded about and how.
type UserPreferences struct {
	// Platforms is the set of platforms the user subscribes to.
	Platforms []Platform `json:"platforms"`

	// NotifyBeforeHours is the user's lead time: a reminder is sent only
	// once the contest starts within this many hours.
	NotifyBeforeHours int `json:"notify_before_hours"`

	// Channels maps channel name to opt-in state.
	Channels map[ChannelName]bool `json:"channels"`
}

// SubscribedTo reports whether the user subscribes to the given platform.
func (u *User) SubscribedTo(p Platform) bool {
	for _, sub := range u.Prefs.Platforms {
		if sub == p {
			return true
		}
	}
	return false
}

// EnabledChannels returns the channels the user has opted into, in a stable
// order (email, whatsapp, webhook).
func (u *User) EnabledChannels() []ChannelName {
	var out []ChannelName
	for _, name := range []ChannelName{ChannelEmail, ChannelWhatsApp, ChannelWebhook} {
		if u.Prefs.Channels[name] {
			out = append(out, name)
		}
	}
	return out
}

// ChannelTarget returns the delivery target for the given channel: the
// user's email address for email, phone number for WhatsApp. Webhook targets
// are configured globally, so the user id is returned as an identifier.
func (u *User) ChannelTarget(name ChannelName) string {
	switch name {
	case ChannelEmail:
		return u.Email
	case ChannelWhatsApp:
		return u.Phone
	case ChannelWebhook:
		return strconv.FormatInt(u.ID, 10)
	default:
		return ""
	}
}
