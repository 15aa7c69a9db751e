// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/models"
)

const userColumns = `id, email, phone, name, is_active,
	platforms, notify_before_hours, channels`

// CreateUser inserts a new user and returns its assigned id.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	platforms, channels, err := encodePrefs(&u.Prefs)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var id int64
	err = db.conn.QueryRowContext(ctx, `INSERT INTO users (
			email, phone, name, is_active,
			platforms, notify_before_hours, channels,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.Email, nullString(u.Phone), nullString(u.Name), u.IsActive,
		platforms, u.Prefs.NotifyBeforeHours, channels,
		now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	return id, nil
}

// GetUserByID fetches a user by id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListActiveUsers returns every active user. The notification scheduler
// filters by platform subscription and lead time in memory; the user table
// is small relative to contests.
func (db *DB) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserPreferences replaces a user's notification preferences.
func (db *DB) UpdateUserPreferences(ctx context.Context, id int64, prefs *models.UserPreferences) error {
	platforms, channels, err := encodePrefs(prefs)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET platforms = ?, notify_before_hours = ?, channels = ?, updated_at = ?
		WHERE id = ?`,
		platforms, prefs.NotifyBeforeHours, channels, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update preferences for user %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserActive toggles the user's active flag.
func (db *DB) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set active for user %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var phone, name sql.NullString
	var platforms, channels string

	err := row.Scan(&u.ID, &u.Email, &phone, &name, &u.IsActive,
		&platforms, &u.Prefs.NotifyBeforeHours, &channels)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Phone = phone.String
	u.Name = name.String
	if err := json.Unmarshal([]byte(platforms), &u.Prefs.Platforms); err != nil {
		return nil, fmt.Errorf("failed to decode platforms for user %d: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(channels), &u.Prefs.Channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels for user %d: %w", u.ID, err)
	}
	return &u, nil
}

func encodePrefs(p *models.UserPreferences) (string, string, error) {
	platforms := p.Platforms
	if platforms == nil {
		platforms = []models.Platform{}
	}
	rawPlatforms, err := json.Marshal(platforms)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode platforms: %w", err)
	}

	channels := p.Channels
	if channels == nil {
		channels = map[models.ChannelName]bool{}
	}
	rawChannels, err := json.Marshal(channels)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode channels: %w", err)
	}
	return string(rawPlatforms), string(rawChannels), nil
}
