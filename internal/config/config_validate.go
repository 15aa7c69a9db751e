// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yksingh/codenotify/internal/schedule"
)

// Validate checks the configuration for internal consistency. It is called
// by LoadWithKoanf after all layers are merged.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validatePlatforms(); err != nil {
		return err
	}
	if c.Cache.StalenessTTL < 0 {
		return fmt.Errorf("cache.staleness_ttl must not be negative, got %s", c.Cache.StalenessTTL)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt", "none":
	default:
		return fmt.Errorf("security.auth_mode must be jwt or none, got %q", c.Security.AuthMode)
	}

	if c.Security.AuthMode == "jwt" && c.Server.Environment == "production" {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required in production with jwt auth")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
		}
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled && !c.Sync.CleanupEnabled {
		return nil
	}
	if c.Sync.Enabled {
		if _, err := schedule.ParseCron(c.Sync.Schedule); err != nil {
			return fmt.Errorf("sync.schedule: %w", err)
		}
		if c.Sync.RetryAttempts < 0 {
			return fmt.Errorf("sync.retry_attempts must not be negative, got %d", c.Sync.RetryAttempts)
		}
		if c.Sync.RetryDelay <= 0 {
			return fmt.Errorf("sync.retry_delay must be positive, got %s", c.Sync.RetryDelay)
		}
	}
	if c.Sync.CleanupEnabled {
		if _, err := schedule.ParseCron(c.Sync.CleanupSchedule); err != nil {
			return fmt.Errorf("sync.cleanup_schedule: %w", err)
		}
		if c.Sync.CleanupDays < 1 {
			return fmt.Errorf("sync.cleanup_days must be at least 1, got %d", c.Sync.CleanupDays)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if !c.Notifications.Enabled {
		return nil
	}
	if c.Notifications.WindowHours < 1 {
		return fmt.Errorf("notifications.window_hours must be at least 1, got %d", c.Notifications.WindowHours)
	}
	if c.Notifications.CheckInterval < time.Minute {
		return fmt.Errorf("notifications.check_interval must be at least 1m, got %s", c.Notifications.CheckInterval)
	}
	if c.Notifications.Workers < 1 {
		return fmt.Errorf("notifications.workers must be at least 1, got %d", c.Notifications.Workers)
	}
	if c.Notifications.QueueSize < 1 {
		return fmt.Errorf("notifications.queue_size must be at least 1, got %d", c.Notifications.QueueSize)
	}
	return nil
}

func (c *Config) validateChannels() error {
	if c.Channels.Email.Enabled {
		if c.Channels.Email.Host == "" {
			return fmt.Errorf("channels.email.host is required when email is enabled")
		}
		if c.Channels.Email.Port < 1 || c.Channels.Email.Port > 65535 {
			return fmt.Errorf("channels.email.port must be 1-65535, got %d", c.Channels.Email.Port)
		}
		if c.Channels.Email.From == "" {
			return fmt.Errorf("channels.email.from is required when email is enabled")
		}
	}
	if c.Channels.WhatsApp.Enabled {
		if c.Channels.WhatsApp.PhoneNumberID == "" {
			return fmt.Errorf("channels.whatsapp.phone_number_id is required when whatsapp is enabled")
		}
		if c.Channels.WhatsApp.AccessToken == "" {
			return fmt.Errorf("channels.whatsapp.access_token is required when whatsapp is enabled")
		}
		if err := validateHTTPURL("channels.whatsapp.api_base_url", c.Channels.WhatsApp.APIBaseURL); err != nil {
			return err
		}
	}
	if c.Channels.Webhook.Enabled {
		if err := validateHTTPURL("channels.webhook.url", c.Channels.Webhook.URL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validatePlatforms() error {
	platforms := []struct {
		name string
		cfg  PlatformConfig
	}{
		{"codeforces", c.Platforms.Codeforces},
		{"leetcode", c.Platforms.LeetCode},
		{"codechef", c.Platforms.CodeChef},
		{"atcoder", c.Platforms.AtCoder},
	}
	for _, p := range platforms {
		if !p.cfg.Enabled {
			continue
		}
		if err := validateHTTPURL("platforms."+p.name+".base_url", p.cfg.BaseURL); err != nil {
			return err
		}
		if p.cfg.Timeout <= 0 {
			return fmt.Errorf("platforms.%s.timeout must be positive, got %s", p.name, p.cfg.Timeout)
		}
		if p.cfg.RateLimit <= 0 {
			return fmt.Errorf("platforms.%s.rate_limit must be positive, got %g", p.name, p.cfg.RateLimit)
		}
	}
	return nil
}

// validateHTTPURL requires an absolute http(s) URL.
func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}
