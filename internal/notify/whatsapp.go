// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/models"
)

// WhatsAppChannel delivers contest reminders through the Meta WhatsApp
// Cloud API. Messages are sent as plain text to the user's phone number via
// POST {base}/{phone_number_id}/messages with a bearer token.
type WhatsAppChannel struct {
	cfg    config.WhatsAppChannelConfig
	client *http.Client
}

// NewWhatsAppChannel creates the WhatsApp Cloud API channel.
func NewWhatsAppChannel(cfg config.WhatsAppChannelConfig) *WhatsAppChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WhatsAppChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Channel.
func (c *WhatsAppChannel) Name() models.ChannelName {
	return models.ChannelWhatsApp
}

// whatsAppMessage is the Cloud API text message payload.
type whatsAppMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

// whatsAppResponse is the subset of the Cloud API response we read.
type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send implements Channel.
func (c *WhatsAppChannel) Send(ctx context.Context, params *SendParams) (*DeliveryResult, error) {
	result := &DeliveryResult{}

	to := params.Notification.Target
	if to == "" {
		result.ErrorMessage = "user has no phone number"
		result.ErrorCode = ErrorCodeInvalidRecipient
		return result, nil
	}
	if c.cfg.PhoneNumberID == "" || c.cfg.AccessToken == "" {
		result.ErrorMessage = "whatsapp channel is not configured"
		result.ErrorCode = ErrorCodeInvalidConfig
		return result, nil
	}

	payload, err := json.Marshal(whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsAppTextBody{Body: ShortText(params.Contest, time.Now().UTC())},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.cfg.APIBaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = ErrorCodeConnectionFailed
		result.IsTransient = true
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		code, transient := transientFromStatus(resp.StatusCode)
		result.ErrorCode = code
		result.IsTransient = transient
		result.ErrorMessage = fmt.Sprintf("whatsapp api status %d", resp.StatusCode)

		var apiResp whatsAppResponse
		if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error != nil {
			result.ErrorMessage = fmt.Sprintf("whatsapp api error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
		}
		return result, nil
	}

	var apiResp whatsAppResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && len(apiResp.Messages) > 0 {
		result.MessageID = apiResp.Messages[0].ID
	}
	result.Success = true
	return result, nil
}
