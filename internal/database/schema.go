// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package database

import (
	"context"
	"fmt"
	"time"
)

// createTables creates the schema if it does not exist. All timestamps are
// stored in UTC.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_contest_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_user_id START 1`,

		`CREATE TABLE IF NOT EXISTS contests (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_contest_id'),
			platform VARCHAR NOT NULL,
			platform_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			phase VARCHAR NOT NULL,
			contest_type VARCHAR NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			duration_minutes BIGINT NOT NULL,
			participant_count BIGINT NOT NULL DEFAULT 0,
			problem_count BIGINT NOT NULL DEFAULT 0,
			description VARCHAR,
			url VARCHAR,
			platform_metadata VARCHAR,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_notified BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (platform, platform_id)
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_user_id'),
			email VARCHAR NOT NULL UNIQUE,
			phone VARCHAR,
			name VARCHAR,
			is_active BOOLEAN NOT NULL DEFAULT true,
			platforms VARCHAR NOT NULL,
			notify_before_hours BIGINT NOT NULL DEFAULT 1,
			channels VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR PRIMARY KEY,
			user_id BIGINT NOT NULL,
			contest_id BIGINT NOT NULL,
			channel VARCHAR NOT NULL,
			target VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			message_id VARCHAR,
			error VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			attempted_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for the hot query paths.
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []string{
		// Notification window scan: phase + start_time + is_notified.
		`CREATE INDEX IF NOT EXISTS idx_contests_window
			ON contests (phase, start_time, is_notified)`,
		// Listing by platform.
		`CREATE INDEX IF NOT EXISTS idx_contests_platform
			ON contests (platform, start_time)`,
		// Notification history lookups.
		`CREATE INDEX IF NOT EXISTS idx_notifications_user
			ON notifications (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_contest
			ON notifications (contest_id)`,
	}

	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
