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
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/yksingh/codenotify/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// contestColumns is the column list every contest query selects, in scan order.
const contestColumns = `id, platform, platform_id, name, phase, contest_type,
	start_time, end_time, duration_minutes, participant_count, problem_count,
	description, url, platform_metadata, is_active, is_notified,
	created_at, updated_at`

// InsertContest inserts a new contest and returns its assigned id.
// IsActive defaults to true, IsNotified to false; the caller's values for
// those fields are ignored.
func (db *DB) InsertContest(ctx context.Context, c *models.Contest) (int64, error) {
	meta, err := marshalMetadata(c.PlatformMetadata)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var id int64
	err = db.conn.QueryRowContext(ctx, `INSERT INTO contests (
			platform, platform_id, name, phase, contest_type,
			start_time, end_time, duration_minutes, participant_count,
			problem_count, description, url, platform_metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.Platform, c.PlatformID, c.Name, c.Phase, c.Type,
		c.StartTime.UTC(), c.EndTime.UTC(), c.DurationMinutes, c.ParticipantCount,
		c.ProblemCount, nullString(c.Description), nullString(c.URL), meta,
		now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contest %s: %w", c.Key(), err)
	}
	return id, nil
}

// UpdateContestTracked updates the sync-owned fields of an existing contest.
// Store-owned fields (is_active, is_notified, created_at) are untouched.
func (db *DB) UpdateContestTracked(ctx context.Context, c *models.Contest) error {
	meta, err := marshalMetadata(c.PlatformMetadata)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx, `UPDATE contests SET
			name = ?, phase = ?, contest_type = ?,
			start_time = ?, end_time = ?, duration_minutes = ?,
			participant_count = ?, problem_count = ?,
			description = ?, url = ?, platform_metadata = ?,
			is_active = true, updated_at = ?
		WHERE platform = ? AND platform_id = ?`,
		c.Name, c.Phase, c.Type,
		c.StartTime.UTC(), c.EndTime.UTC(), c.DurationMinutes,
		c.ParticipantCount, c.ProblemCount,
		nullString(c.Description), nullString(c.URL), meta,
		time.Now().UTC(),
		c.Platform, c.PlatformID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contest %s: %w", c.Key(), err)
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

// GetContestByKey fetches a contest by its natural key.
func (db *DB) GetContestByKey(ctx context.Context, platform models.Platform, platformID string) (*models.Contest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE platform = ? AND platform_id = ?`,
		platform, platformID)
	return scanContest(row)
}

// GetContestByID fetches a contest by surrogate id.
func (db *DB) GetContestByID(ctx context.Context, id int64) (*models.Contest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = ?`, id)
	return scanContest(row)
}

// ContestFilter narrows ListContests.
type ContestFilter struct {
	Platform models.Platform // empty = all platforms
	Phase    models.Phase    // empty = all phases
	// Upcoming limits to active contests starting after now.
	Upcoming bool
	Limit    int
	Offset   int
}

// ListContests returns contests matching the filter, ordered by start time.
func (db *DB) ListContests(ctx context.Context, f ContestFilter) ([]*models.Contest, error) {
	var where []string
	var args []interface{}

	if f.Platform != "" {
		where = append(where, "platform = ?")
		args = append(args, f.Platform)
	}
	if f.Phase != "" {
		where = append(where, "phase = ?")
		args = append(args, f.Phase)
	}
	if f.Upcoming {
		where = append(where, "is_active AND start_time > ?")
		args = append(args, time.Now().UTC())
	}

	query := `SELECT ` + contestColumns + ` FROM contests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	defer closeQuietly(rows)

	return scanContests(rows)
}

// ContestsInNotificationWindow returns active, un-notified contests starting
// within (now, now+window]. These are the candidates the notification
// scheduler fans out to users.
func (db *DB) ContestsInNotificationWindow(ctx context.Context, now time.Time, window time.Duration) ([]*models.Contest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+contestColumns+` FROM contests
		WHERE is_active AND NOT is_notified
			AND start_time > ? AND start_time <= ?
		ORDER BY start_time ASC`,
		now.UTC(), now.UTC().Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to query notification window: %w", err)
	}
	defer closeQuietly(rows)

	return scanContests(rows)
}

// MarkContestNotified atomically claims a contest for notification. It
// returns true only for the caller that flips is_notified from false to
// true; every other caller gets false. This is the at-most-once guard.
func (db *DB) MarkContestNotified(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE contests SET is_notified = true, updated_at = ?
		WHERE id = ? AND NOT is_notified`,
		time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark contest %d notified: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// RefreshContestPhases recomputes the stored phase of every contest from its
// start/end times. Returns the number of contests whose phase changed.
func (db *DB) RefreshContestPhases(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE contests SET phase = derived.computed, updated_at = ?
		FROM (
			SELECT id AS cid,
				CASE
					WHEN start_time > ? THEN 'BEFORE'
					WHEN end_time > ? THEN 'CODING'
					ELSE 'FINISHED'
				END AS computed
			FROM contests
		) derived
		WHERE contests.id = derived.cid AND contests.phase <> derived.computed`,
		now, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh contest phases: %w", err)
	}
	return res.RowsAffected()
}

// DeactivateMissingContests clears is_active on upcoming contests of the
// given platform that the latest feed no longer reports (cancelled or
// rescheduled under a new id). Contests already coding or finished are left
// alone.
func (db *DB) DeactivateMissingContests(ctx context.Context, platform models.Platform, seen []string) (int64, error) {
	query := `UPDATE contests SET is_active = false, updated_at = ?
		WHERE platform = ? AND is_active AND phase = 'BEFORE'`
	args := []interface{}{time.Now().UTC(), platform}

	if len(seen) > 0 {
		placeholders := strings.Repeat("?,", len(seen))
		query += ` AND platform_id NOT IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, id := range seen {
			args = append(args, id)
		}
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate missing contests: %w", err)
	}
	return res.RowsAffected()
}

// CleanupFinishedContests deletes finished contests that ended before the
// cutoff. Idempotent: a second run with the same cutoff deletes nothing.
func (db *DB) CleanupFinishedContests(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM contests WHERE phase = 'FINISHED' AND end_time < ?`,
		cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up finished contests: %w", err)
	}
	return res.RowsAffected()
}

// CountContests returns the total number of stored contests.
func (db *DB) CountContests(ctx context.Context) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM contests`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count contests: %w", err)
	}
	return n, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner) (*models.Contest, error) {
	var c models.Contest
	var description, url, meta sql.NullString

	err := row.Scan(
		&c.ID, &c.Platform, &c.PlatformID, &c.Name, &c.Phase, &c.Type,
		&c.StartTime, &c.EndTime, &c.DurationMinutes, &c.ParticipantCount,
		&c.ProblemCount, &description, &url, &meta, &c.IsActive, &c.IsNotified,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contest: %w", err)
	}

	c.Description = description.String
	c.URL = url.String
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &c.PlatformMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode platform metadata: %w", err)
		}
	}
	c.StartTime = c.StartTime.UTC()
	c.EndTime = c.EndTime.UTC()
	return &c, nil
}

func scanContests(rows *sql.Rows) ([]*models.Contest, error) {
	var out []*models.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func marshalMetadata(meta map[string]any) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode platform metadata: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
