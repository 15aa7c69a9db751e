// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package config loads and validates CodeNotify configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. Environment variables win. See koanf.go for
// the layering and the env var to config path mapping.
package config

import "time"

// Config is the root configuration for CodeNotify.
type Config struct {
	Database      DatabaseConfig      `koanf:"database"`
	Server        ServerConfig        `koanf:"server"`
	API           APIConfig           `koanf:"api"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
	Sync          SyncConfig          `koanf:"sync"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Channels      ChannelsConfig      `koanf:"channels"`
	Platforms     PlatformsConfig     `koanf:"platforms"`
	Cache         CacheConfig         `koanf:"cache"`
}

// DatabaseConfig configures the DuckDB contest store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" gives an in-memory store.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production". Production requires a
	// JWT secret when auth is enabled.
	Environment string `koanf:"environment"`
}

// APIConfig configures API pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig configures authentication and request limits.
type SecurityConfig struct {
	// AuthMode is "jwt" or "none". With "none" the admin endpoints
	// (manual sync, cleanup) are open; only use that in development.
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret signs admin tokens. Required when AuthMode is "jwt" in
	// production.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the lifetime of issued admin tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SyncConfig configures the contest sync engine.
type SyncConfig struct {
	// Enabled turns the periodic sync loop on.
	Enabled bool `koanf:"enabled"`

	// Schedule is a 5-field cron expression for periodic syncs.
	Schedule string `koanf:"schedule"`

	// RetryAttempts is the per-platform fetch retry budget.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the initial backoff delay; it doubles per attempt.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// CleanupEnabled turns the periodic retention cleanup on.
	CleanupEnabled bool `koanf:"cleanup_enabled"`

	// CleanupSchedule is a 5-field cron expression for cleanup runs.
	CleanupSchedule string `koanf:"cleanup_schedule"`

	// CleanupDays is the retention window: finished contests older than
	// this many days are deleted.
	CleanupDays int `koanf:"cleanup_days"`
}

// NotificationsConfig configures the notification trigger scheduler and
// dispatch workers.
type NotificationsConfig struct {
	Enabled bool `koanf:"enabled"`

	// WindowHours is the global look-ahead window: contests starting within
	// this many hours are candidates for notification.
	WindowHours int `koanf:"window_hours"`

	// CheckInterval is how often the scheduler scans for due contests.
	CheckInterval time.Duration `koanf:"check_interval"`

	// Workers is the dispatch worker pool size.
	Workers int `koanf:"workers"`

	// QueueSize bounds the dispatch queue.
	QueueSize int `koanf:"queue_size"`

	// RetryAttempts is the per-delivery retry budget for transient failures.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the initial delivery backoff delay.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// ChannelsConfig configures the delivery channels.
type ChannelsConfig struct {
	Email    EmailChannelConfig    `koanf:"email"`
	WhatsApp WhatsAppChannelConfig `koanf:"whatsapp"`
	Webhook  WebhookChannelConfig  `koanf:"webhook"`
}

// EmailChannelConfig configures SMTP delivery.
type EmailChannelConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// WhatsAppChannelConfig configures the WhatsApp Cloud API channel.
type WhatsAppChannelConfig struct {
	Enabled bool `koanf:"enabled"`

	// APIBaseURL is the Graph API base, version included.
	APIBaseURL string `koanf:"api_base_url"`

	// PhoneNumberID is the sending phone number ID.
	PhoneNumberID string `koanf:"phone_number_id"`

	// AccessToken is the Cloud API bearer token.
	AccessToken string `koanf:"access_token"`

	Timeout time.Duration `koanf:"timeout"`
}

// WebhookChannelConfig configures outbound webhook delivery.
type WebhookChannelConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL is the endpoint contest payloads are POSTed to.
	URL string `koanf:"url"`

	// SigningSecret, when set, adds an HMAC-SHA256 signature header.
	SigningSecret string `koanf:"signing_secret"`

	Timeout time.Duration `koanf:"timeout"`
}

// PlatformsConfig configures the upstream platform clients.
type PlatformsConfig struct {
	// UserAgent is sent on every upstream request.
	UserAgent string `koanf:"user_agent"`

	Codeforces PlatformConfig `koanf:"codeforces"`
	LeetCode   PlatformConfig `koanf:"leetcode"`
	CodeChef   PlatformConfig `koanf:"codechef"`
	AtCoder    PlatformConfig `koanf:"atcoder"`
}

// PlatformConfig configures one upstream platform client.
type PlatformConfig struct {
	Enabled bool `koanf:"enabled"`

	// BaseURL overrides the platform endpoint, mainly for tests.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the request rate ceiling in requests per second.
	RateLimit float64 `koanf:"rate_limit"`
}

// CacheConfig configures the Badger sync-staleness cache.
type CacheConfig struct {
	// Path is the Badger directory. Empty uses an in-memory cache.
	Path string `koanf:"path"`

	// StalenessTTL is how long a platform sync result is considered fresh.
	// Syncs requested inside the TTL are skipped unless forced.
	StalenessTTL time.Duration `koanf:"staleness_ttl"`
}
