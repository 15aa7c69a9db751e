// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package notify implements contest reminder delivery.
//
// The package has two halves. The scheduler scans for contests entering the
// notification window, claims each one atomically, and expands the claim
// into per-user per-channel dispatch jobs. The dispatcher runs those jobs
// through a worker pool against the configured channels:
//   - Email: SMTP with STARTTLS when the server offers it
//   - WhatsApp: Meta Cloud API messages endpoint
//   - Webhook: generic HTTP POST with optional HMAC-SHA256 signing
//
// Each channel implements the Channel interface. Delivery failures are
// classified transient or permanent; only transient ones are retried, and
// every attempt ends in a persisted notification row.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yksingh/codenotify/internal/models"
)

// Channel defines the interface for reminder delivery channels.
type Channel interface {
	// Name returns the channel identifier (email, whatsapp, webhook).
	Name() models.ChannelName

	// Send delivers one contest reminder. Delivery failures are captured in
	// the result; a non-nil error means the attempt itself could not be made.
	Send(ctx context.Context, params *SendParams) (*DeliveryResult, error)
}

// SendParams carries everything a channel needs for one delivery.
type SendParams struct {
	// Notification is the pending row this delivery will resolve.
	Notification *models.Notification

	// Contest is the contest the reminder is about.
	Contest *models.Contest

	// User is the recipient.
	User *models.User
}

// DeliveryResult is the outcome of one delivery attempt.
type DeliveryResult struct {
	// Success indicates the provider accepted the message.
	Success bool

	// MessageID is the provider-assigned identifier, when one was returned.
	MessageID string

	// ErrorMessage contains failure detail.
	ErrorMessage string

	// ErrorCode is a machine-readable failure category.
	ErrorCode string

	// IsTransient indicates the failure may succeed on retry.
	IsTransient bool
}

// Error codes for delivery failures.
const (
	ErrorCodeInvalidConfig    = "INVALID_CONFIG"
	ErrorCodeInvalidRecipient = "INVALID_RECIPIENT"
	ErrorCodeConnectionFailed = "CONNECTION_FAILED"
	ErrorCodeAuthFailed       = "AUTH_FAILED"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeServerError      = "SERVER_ERROR"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeUnknown          = "UNKNOWN"
)

// Registry maps channel names to configured channel implementations.
type Registry struct {
	channels map[models.ChannelName]Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[models.ChannelName]Channel)}
}

// Register adds a channel.
func (r *Registry) Register(ch Channel) {
	r.channels[ch.Name()] = ch
}

// Get retrieves a channel by name.
func (r *Registry) Get(name models.ChannelName) (Channel, bool) {
	ch, ok := r.channels[name]
	return ch, ok
}

// List returns the registered channel names in a stable order.
func (r *Registry) List() []models.ChannelName {
	var out []models.ChannelName
	for _, name := range []models.ChannelName{models.ChannelEmail, models.ChannelWhatsApp, models.ChannelWebhook} {
		if _, ok := r.channels[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email address is required")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid email address format: %s", email)
	}
	if !strings.Contains(parts[1], ".") {
		return fmt.Errorf("invalid email domain: %s", parts[1])
	}
	return nil
}

// ValidateWebhookURL checks a webhook endpoint URL.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("webhook URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("webhook URL must have a host")
	}
	return nil
}

// transientFromStatus classifies an HTTP response status for retry purposes.
func transientFromStatus(status int) (code string, transient bool) {
	switch {
	case status == 429:
		return ErrorCodeRateLimited, true
	case status >= 500:
		return ErrorCodeServerError, true
	case status == 401 || status == 403:
		return ErrorCodeAuthFailed, false
	default:
		return ErrorCodeUnknown, false
	}
}

// formatLeadTime renders the time until contest start the way it appears in
// reminder text, e.g. "2h 30m" or "45m".
func formatLeadTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
