// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/models"
)

func notifyContest() *models.Contest {
	start := time.Now().Add(2*time.Hour + 30*time.Minute).UTC()
	return &models.Contest{
		ID:              42,
		Platform:        models.PlatformCodeforces,
		PlatformID:      "2001",
		Name:            "Codeforces Round 999 (Div. 2)",
		Phase:           models.PhaseBefore,
		Type:            models.ContestTypeCF,
		StartTime:       start,
		EndTime:         start.Add(2 * time.Hour),
		DurationMinutes: 120,
		URL:             "https://codeforces.com/contests/2001",
	}
}

func notifyUser() *models.User {
	return &models.User{
		ID:    7,
		Email: "alice@example.com",
		Phone: "15551234567",
		Name:  "Alice",
		Prefs: models.UserPreferences{
			Platforms:         []models.Platform{models.PlatformCodeforces},
			NotifyBeforeHours: 24,
			Channels: map[models.ChannelName]bool{
				models.ChannelEmail:   true,
				models.ChannelWebhook: true,
			},
		},
	}
}

func notifyParams(channel models.ChannelName, target string) *SendParams {
	u := notifyUser()
	c := notifyContest()
	return &SendParams{
		Notification: &models.Notification{
			ID:        "11111111-2222-3333-4444-555555555555",
			UserID:    u.ID,
			ContestID: c.ID,
			Channel:   channel,
			Target:    target,
			Status:    models.NotificationPending,
		},
		Contest: c,
		User:    u,
	}
}

func TestSubjectAndBody(t *testing.T) {
	t.Parallel()

	c := notifyContest()
	u := notifyUser()
	now := c.StartTime.Add(-2*time.Hour - 30*time.Minute)

	subject := Subject(c, now)
	if subject != "Codeforces Round 999 (Div. 2) starts in 2h 30m" {
		t.Errorf("unexpected subject %q", subject)
	}

	body := Body(c, u, now)
	for _, want := range []string{"Hi Alice", "Codeforces", "2h 30m", c.URL, "Duration: 2h 0m"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	short := ShortText(c, now)
	if !strings.Contains(short, "starts in 2h 30m") || !strings.Contains(short, c.URL) {
		t.Errorf("unexpected short text %q", short)
	}
}

func TestFormatLeadTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{2*time.Hour + 30*time.Minute, "2h 30m"},
		{45 * time.Minute, "45m"},
		{25 * time.Hour, "25h 0m"},
		{-time.Minute, "0m"},
	}
	for _, tt := range tests {
		if got := formatLeadTime(tt.in); got != tt.want {
			t.Errorf("formatLeadTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"a@example.com", "user.name@sub.example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) unexpected error: %v", e, err)
		}
	}
	invalid := []string{"", "no-at-sign", "@example.com", "a@", "a@nodot"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) expected error", e)
		}
	}
}

func TestValidateWebhookURL(t *testing.T) {
	t.Parallel()

	if err := ValidateWebhookURL("https://example.com/hook"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, u := range []string{"", "ftp://example.com", "https://"} {
		if err := ValidateWebhookURL(u); err == nil {
			t.Errorf("ValidateWebhookURL(%q) expected error", u)
		}
	}
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"contest.reminder"}`)
	sig := Sign(body, "secret")
	if !VerifySignature(body, "secret", sig) {
		t.Error("signature should verify")
	}
	if VerifySignature(body, "wrong", sig) {
		t.Error("signature should not verify with wrong secret")
	}
	if VerifySignature([]byte("tampered"), "secret", sig) {
		t.Error("signature should not verify for tampered body")
	}
}

func TestWebhookSendSigned(t *testing.T) {
	t.Parallel()

	var gotPayload WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !VerifySignature(body, "hook-secret", r.Header.Get(SignatureHeader)) {
			t.Error("invalid request signature")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.Unmarshal(body, &gotPayload); err != nil {
			t.Errorf("unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(config.WebhookChannelConfig{
		Enabled:       true,
		URL:           srv.URL,
		SigningSecret: "hook-secret",
		Timeout:       5 * time.Second,
	})

	result, err := ch.Send(context.Background(), notifyParams(models.ChannelWebhook, ""))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if gotPayload.Event != "contest.reminder" {
		t.Errorf("unexpected event %q", gotPayload.Event)
	}
	if gotPayload.Contest == nil || gotPayload.Contest.Name != "Codeforces Round 999 (Div. 2)" {
		t.Errorf("unexpected contest payload %+v", gotPayload.Contest)
	}
	if gotPayload.UserID != 7 {
		t.Errorf("unexpected user id %d", gotPayload.UserID)
	}
}

func TestWebhookErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		ch := NewWebhookChannel(config.WebhookChannelConfig{URL: srv.URL, Timeout: 5 * time.Second})
		result, err := ch.Send(context.Background(), notifyParams(models.ChannelWebhook, ""))
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: Send failed: %v", tt.status, err)
		}
		if result.Success {
			t.Errorf("status %d: expected failure", tt.status)
		}
		if result.IsTransient != tt.transient {
			t.Errorf("status %d: IsTransient = %v, want %v", tt.status, result.IsTransient, tt.transient)
		}
	}
}

func TestWebhookInvalidConfig(t *testing.T) {
	t.Parallel()

	ch := NewWebhookChannel(config.WebhookChannelConfig{URL: ""})
	result, err := ch.Send(context.Background(), notifyParams(models.ChannelWebhook, ""))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Success || result.ErrorCode != ErrorCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %+v", result)
	}
}

func TestWhatsAppSend(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/555001/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-abc" {
			t.Errorf("unexpected authorization %q", auth)
		}
		var msg whatsAppMessage
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &msg); err != nil {
			t.Errorf("unmarshal message: %v", err)
		}
		if msg.MessagingProduct != "whatsapp" || msg.Type != "text" {
			t.Errorf("unexpected message envelope %+v", msg)
		}
		if msg.To != "15551234567" {
			t.Errorf("unexpected recipient %q", msg.To)
		}
		if !strings.Contains(msg.Text.Body, "Codeforces Round 999") {
			t.Errorf("unexpected text %q", msg.Text.Body)
		}
		fmt.Fprint(w, `{"messages":[{"id":"wamid.ABC123"}]}`)
	}))
	defer srv.Close()

	ch := NewWhatsAppChannel(config.WhatsAppChannelConfig{
		Enabled:       true,
		APIBaseURL:    srv.URL,
		PhoneNumberID: "555001",
		AccessToken:   "token-abc",
		Timeout:       5 * time.Second,
	})

	result, err := ch.Send(context.Background(), notifyParams(models.ChannelWhatsApp, "15551234567"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.MessageID != "wamid.ABC123" {
		t.Errorf("unexpected message id %q", result.MessageID)
	}
}

func TestWhatsAppAuthError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid OAuth access token","code":190}}`)
	}))
	defer srv.Close()

	ch := NewWhatsAppChannel(config.WhatsAppChannelConfig{
		APIBaseURL:    srv.URL,
		PhoneNumberID: "555001",
		AccessToken:   "expired",
	})

	result, err := ch.Send(context.Background(), notifyParams(models.ChannelWhatsApp, "15551234567"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Success || result.IsTransient {
		t.Fatalf("auth failure should be permanent, got %+v", result)
	}
	if result.ErrorCode != ErrorCodeAuthFailed {
		t.Errorf("expected AUTH_FAILED, got %s", result.ErrorCode)
	}
	if !strings.Contains(result.ErrorMessage, "Invalid OAuth access token") {
		t.Errorf("expected API error detail, got %q", result.ErrorMessage)
	}
}

func TestWhatsAppMissingPhone(t *testing.T) {
	t.Parallel()

	ch := NewWhatsAppChannel(config.WhatsAppChannelConfig{
		APIBaseURL:    "https://graph.facebook.com/v18.0",
		PhoneNumberID: "555001",
		AccessToken:   "token",
	})

	result, err := ch.Send(context.Background(), notifyParams(models.ChannelWhatsApp, ""))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Success || result.ErrorCode != ErrorCodeInvalidRecipient {
		t.Fatalf("expected INVALID_RECIPIENT, got %+v", result)
	}
}

func TestEmailInvalidRecipient(t *testing.T) {
	t.Parallel()

	ch := NewEmailChannel(config.EmailChannelConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@example.com",
	})

	result, err := ch.Send(context.Background(), notifyParams(models.ChannelEmail, "not-an-email"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Success || result.ErrorCode != ErrorCodeInvalidRecipient {
		t.Fatalf("expected INVALID_RECIPIENT, got %+v", result)
	}
}

func TestClassifyEmailError(t *testing.T) {
	t.Parallel()

	if code := classifyEmailError(fmt.Errorf("failed to connect to SMTP server")); code != ErrorCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %s", code)
	}
	if code := classifyEmailError(fmt.Errorf("context deadline exceeded")); code != ErrorCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", code)
	}
	if code := classifyEmailError(fmt.Errorf("SMTP authentication failed")); code != ErrorCodeAuthFailed {
		t.Errorf("expected AUTH_FAILED, got %s", code)
	}
	if !isTransientEmailError(ErrorCodeConnectionFailed) {
		t.Error("connection failures should be transient")
	}
	if isTransientEmailError(ErrorCodeAuthFailed) {
		t.Error("auth failures should be permanent")
	}
}

func TestRegistryStableOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(NewWebhookChannel(config.WebhookChannelConfig{URL: "https://example.com"}))
	r.Register(NewEmailChannel(config.EmailChannelConfig{Host: "smtp.example.com", Port: 587, From: "a@b.co"}))

	list := r.List()
	if len(list) != 2 || list[0] != models.ChannelEmail || list[1] != models.ChannelWebhook {
		t.Errorf("unexpected order %v", list)
	}

	if _, ok := r.Get(models.ChannelWhatsApp); ok {
		t.Error("whatsapp should not be registered")
	}
}
