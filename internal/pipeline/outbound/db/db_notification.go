package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/jackc/pgx/v5"
)

// CreateNotification writes the in-app notification record for a delivery.
func (s *DB) CreateNotification(ctx context.Context, n entity.Notification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notifications (id, user_id, category, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Category.String(), n.Title, n.Body, n.CreatedAt)

	return s.mapError(err)
}

// ListNotifications returns the user's in-app notifications, newest first.
func (s *DB) ListNotifications(ctx context.Context, userID int64, limit, offset int32) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, category, title, body, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.Notification
	for rows.Next() {
		var (
			n        entity.Notification
			category string
		)
		if sErr := rows.Scan(&n.ID, &n.UserID, &category, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); sErr != nil {
			return nil, s.mapError(sErr)
		}
		n.Category = entity.Category(category)
		items = append(items, n)
	}

	return items, s.mapError(rows.Err())
}

// MarkNotificationRead stamps one in-app notification as read.
func (s *DB) MarkNotificationRead(ctx context.Context, userID, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $2 AND user_id = $1`, userID, id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.mapError(pgx.ErrNoRows)
	}

	return nil
}

// CountNotificationsSince counts in-app deliveries to the user at or after
// the cutoff; the eligibility gate uses local midnight for the daily cap.
func (s *DB) CountNotificationsSince(ctx context.Context, userID int64, since time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountNotificationsSince")
	defer func() { s.endSpan(span, err) }()

	var count int64
	err = s.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&count)

	return count, s.mapError(err)
}

// LastNotificationAt returns when the user last received a notification of
// the given category, or nil when they never have. Cooldowns are budgeted
// per category, so a hot alert never delays an appointment match.
func (s *DB) LastNotificationAt(ctx context.Context, userID int64, category entity.Category) (_ *time.Time, err error) {
	ctx, span := s.startSpan(ctx, "LastNotificationAt")
	defer func() { s.endSpan(span, err) }()

	var at *time.Time
	err = s.conn.QueryRow(ctx, `
		SELECT MAX(created_at)
		FROM notifications
		WHERE user_id = $1 AND category = $2`, userID, category.String()).Scan(&at)

	return at, s.mapError(err)
}
