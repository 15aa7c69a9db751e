// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package models

import "time"

// ChannelName identifies a notification delivery channel.
type ChannelName string

// Delivery channels.
const (
	ChannelEmail    ChannelName = "email"
	ChannelWhatsApp ChannelName = "whatsapp"
	ChannelWebhook  ChannelName = "webhook"
)

// Valid reports whether the channel name is one the dispatcher knows.
func (c ChannelName) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelWebhook:
		return true
	}
	return false
}

// NotificationStatus is the delivery state of one notification record.
type NotificationStatus string

// Notification statuses. Pending rows are created before dispatch and move
// to exactly one terminal state; terminal rows are only touched again by an
// explicit redeliver.
const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification represents one dispatch attempt of a contest reminder to one
// user over one channel.
type Notification struct {
	ID        string             `json:"id"`
	UserID    int64              `json:"user_id"`
	ContestID int64              `json:"contest_id"`
	Channel   ChannelName        `json:"channel"`
	Target    string             `json:"target"`
	Status    NotificationStatus `json:"status"`

	// MessageID is the provider-assigned identifier, when one was returned.
	MessageID string `json:"message_id,omitempty"`

	// Error holds delivery failure detail for failed rows.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AttemptedAt *time.Time `json:"attempted_at,omitempty"`
}

// Terminal reports whether the notification reached a final state.
func (n *Notification) Terminal() bool {
	return n.Status == NotificationSent || n.Status == NotificationFailed
}
