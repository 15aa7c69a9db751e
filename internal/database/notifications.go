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

	"github.com/yksingh/codenotify/internal/models"
)

const notificationColumns = `id, user_id, contest_id, channel, target,
	status, message_id, error, created_at, attempted_at`

// InsertNotification records a pending notification before dispatch.
func (db *DB) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO notifications (
			id, user_id, contest_id, channel, target, status,
			message_id, error, created_at, attempted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.ContestID, n.Channel, n.Target, n.Status,
		nullString(n.MessageID), nullString(n.Error), n.CreatedAt.UTC(), nullTime(n.AttemptedAt))
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
	}
	return nil
}

// UpdateNotificationResult moves a notification to a terminal state after a
// dispatch attempt.
func (db *DB) UpdateNotificationResult(ctx context.Context, id string, status models.NotificationStatus, messageID, errMsg string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET status = ?, message_id = ?, error = ?, attempted_at = ?
		WHERE id = ?`,
		status, nullString(messageID), nullString(errMsg), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
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

// GetNotification fetches one notification record.
func (db *DB) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListNotificationsForUser returns a user's notification history, newest
// first.
func (db *DB) ListNotificationsForUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListFailedNotifications returns failed notifications created at or after
// the given time, oldest first. Backs the admin batch redelivery endpoint.
func (db *DB) ListFailedNotifications(ctx context.Context, since time.Time) ([]*models.Notification, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		WHERE status = ? AND created_at >= ? ORDER BY created_at ASC`,
		models.NotificationFailed, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list failed notifications: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountNotificationsByStatus returns notification counts keyed by status.
func (db *DB) CountNotificationsByStatus(ctx context.Context) (map[models.NotificationStatus]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, count(*) FROM notifications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[models.NotificationStatus]int64)
	for rows.Next() {
		var status models.NotificationStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var messageID, errMsg sql.NullString
	var attemptedAt sql.NullTime

	err := row.Scan(&n.ID, &n.UserID, &n.ContestID, &n.Channel, &n.Target,
		&n.Status, &messageID, &errMsg, &n.CreatedAt, &attemptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.MessageID = messageID.String
	n.Error = errMsg.String
	if attemptedAt.Valid {
		t := attemptedAt.Time.UTC()
		n.AttemptedAt = &t
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
