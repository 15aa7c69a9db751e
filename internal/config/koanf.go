// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/codenotify/config.yaml",
	"/etc/codenotify/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/codenotify.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "",
			TokenTTL:        24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Sync: SyncConfig{
			Enabled:         true,
			Schedule:        "0 */6 * * *", // every 6 hours
			RetryAttempts:   3,
			RetryDelay:      time.Second,
			CleanupEnabled:  true,
			CleanupSchedule: "0 2 * * *", // daily at 02:00
			CleanupDays:     90,
		},
		Notifications: NotificationsConfig{
			Enabled:       true,
			WindowHours:   24,
			CheckInterval: 15 * time.Minute,
			Workers:       4,
			QueueSize:     256,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Channels: ChannelsConfig{
			Email: EmailChannelConfig{
				Enabled: false,
				Port:    587,
			},
			WhatsApp: WhatsAppChannelConfig{
				Enabled:    false,
				APIBaseURL: "https://graph.facebook.com/v18.0",
				Timeout:    15 * time.Second,
			},
			Webhook: WebhookChannelConfig{
				Enabled: false,
				Timeout: 10 * time.Second,
			},
		},
		Platforms: PlatformsConfig{
			UserAgent: "CodeNotify/1.0",
			Codeforces: PlatformConfig{
				Enabled:   true,
				BaseURL:   "https://codeforces.com/api",
				Timeout:   10 * time.Second,
				RateLimit: 1,
			},
			LeetCode: PlatformConfig{
				Enabled:   true,
				BaseURL:   "https://leetcode.com/graphql",
				Timeout:   15 * time.Second,
				RateLimit: 1,
			},
			CodeChef: PlatformConfig{
				Enabled:   true,
				BaseURL:   "https://www.codechef.com/api/list/contests/all",
				Timeout:   15 * time.Second,
				RateLimit: 1,
			},
			AtCoder: PlatformConfig{
				Enabled:   true,
				BaseURL:   "https://kenkoooo.com/atcoder/resources/contests.json",
				Timeout:   15 * time.Second,
				RateLimit: 1,
			},
		},
		Cache: CacheConfig{
			Path:         "", // in-memory by default
			StalenessTTL: 5 * time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// CONTEST_SYNC_INTERVAL -> sync.schedule, SMTP_HOST -> channels.email.host
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so stray env vars cannot pollute config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Security
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"jwt_token_ttl":       "security.token_ttl",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Contest sync
		"contest_sync_enabled":     "sync.enabled",
		"contest_sync_interval":    "sync.schedule",
		"sync_retry_attempts":      "sync.retry_attempts",
		"sync_retry_delay":         "sync.retry_delay",
		"contest_cleanup_enabled":  "sync.cleanup_enabled",
		"contest_cleanup_interval": "sync.cleanup_schedule",
		"contest_cleanup_days":     "sync.cleanup_days",

		// Notifications
		"notifications_enabled":       "notifications.enabled",
		"notification_window_hours":   "notifications.window_hours",
		"notification_check_interval": "notifications.check_interval",
		"notification_workers":        "notifications.workers",
		"notification_queue_size":     "notifications.queue_size",
		"notification_retry_attempts": "notifications.retry_attempts",
		"notification_retry_delay":    "notifications.retry_delay",

		// Email channel
		"email_enabled": "channels.email.enabled",
		"smtp_host":     "channels.email.host",
		"smtp_port":     "channels.email.port",
		"smtp_username": "channels.email.username",
		"smtp_password": "channels.email.password",
		"smtp_from":     "channels.email.from",

		// WhatsApp channel
		"whatsapp_enabled":         "channels.whatsapp.enabled",
		"whatsapp_api_base_url":    "channels.whatsapp.api_base_url",
		"whatsapp_phone_number_id": "channels.whatsapp.phone_number_id",
		"whatsapp_access_token":    "channels.whatsapp.access_token",
		"whatsapp_timeout":         "channels.whatsapp.timeout",

		// Webhook channel
		"webhook_enabled":        "channels.webhook.enabled",
		"webhook_url":            "channels.webhook.url",
		"webhook_signing_secret": "channels.webhook.signing_secret",
		"webhook_timeout":        "channels.webhook.timeout",

		// Platform clients
		"platform_user_agent":    "platforms.user_agent",
		"codeforces_enabled":     "platforms.codeforces.enabled",
		"codeforces_base_url":    "platforms.codeforces.base_url",
		"codeforces_timeout":     "platforms.codeforces.timeout",
		"codeforces_rate_limit":  "platforms.codeforces.rate_limit",
		"leetcode_enabled":       "platforms.leetcode.enabled",
		"leetcode_base_url":      "platforms.leetcode.base_url",
		"leetcode_timeout":       "platforms.leetcode.timeout",
		"leetcode_rate_limit":    "platforms.leetcode.rate_limit",
		"codechef_enabled":       "platforms.codechef.enabled",
		"codechef_base_url":      "platforms.codechef.base_url",
		"codechef_timeout":       "platforms.codechef.timeout",
		"codechef_rate_limit":    "platforms.codechef.rate_limit",
		"atcoder_enabled":        "platforms.atcoder.enabled",
		"atcoder_base_url":       "platforms.atcoder.base_url",
		"atcoder_timeout":        "platforms.atcoder.timeout",
		"atcoder_rate_limit":     "platforms.atcoder.rate_limit",

		// Staleness cache
		"cache_path":          "cache.path",
		"cache_staleness_ttl": "cache.staleness_ttl",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller is
// responsible for mutex protection when swapping configuration.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
