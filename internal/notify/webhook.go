// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, computed
// with the configured signing secret.
const SignatureHeader = "X-CodeNotify-Signature"

// WebhookChannel delivers contest reminders as JSON POSTs to a configured
// endpoint. When a signing secret is set, each request is signed so the
// receiver can verify origin and integrity.
type WebhookChannel struct {
	cfg    config.WebhookChannelConfig
	client *http.Client
}

// NewWebhookChannel creates the outbound webhook channel.
func NewWebhookChannel(cfg config.WebhookChannelConfig) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Channel.
func (c *WebhookChannel) Name() models.ChannelName {
	return models.ChannelWebhook
}

// WebhookPayload is the JSON body POSTed to the endpoint.
type WebhookPayload struct {
	Event          string          `json:"event"`
	Timestamp      time.Time       `json:"timestamp"`
	NotificationID string          `json:"notification_id"`
	UserID         int64           `json:"user_id"`
	Contest        *models.Contest `json:"contest"`
}

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, params *SendParams) (*DeliveryResult, error) {
	result := &DeliveryResult{}

	if err := ValidateWebhookURL(c.cfg.URL); err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = ErrorCodeInvalidConfig
		return result, nil
	}

	payload, err := json.Marshal(WebhookPayload{
		Event:          "contest.reminder",
		Timestamp:      time.Now().UTC(),
		NotificationID: params.Notification.ID,
		UserID:         params.User.ID,
		Contest:        params.Contest,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.SigningSecret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, c.cfg.SigningSecret))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = ErrorCodeConnectionFailed
		result.IsTransient = true
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, transient := transientFromStatus(resp.StatusCode)
		result.ErrorCode = code
		result.IsTransient = transient
		result.ErrorMessage = fmt.Sprintf("webhook endpoint status %d", resp.StatusCode)
		return result, nil
	}

	result.Success = true
	return result, nil
}

// Sign computes the hex HMAC-SHA256 signature of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
// Comparison is constant-time.
func VerifySignature(body []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}
