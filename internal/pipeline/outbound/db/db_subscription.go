package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const subscriptionColumns = `id, user_id, target_date, range_start, range_end, status, method, is_active, created_at, updated_at`

func scanSubscription(row pgx.Row) (entity.Subscription, error) {
	var (
		sub        entity.Subscription
		target     pgtype.Date
		rangeStart pgtype.Date
		rangeEnd   pgtype.Date
		status     string
		method     string
	)

	err := row.Scan(&sub.ID, &sub.UserID, &target, &rangeStart, &rangeEnd,
		&status, &method, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return entity.Subscription{}, err
	}

	sub.TargetDate = dateString(target)
	sub.RangeStart = dateString(rangeStart)
	sub.RangeEnd = dateString(rangeEnd)
	sub.Status = entity.SubscriptionStatusFromString(status)
	sub.Method = entity.MethodFromString(method)

	return sub, nil
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(entity.DateLayout)
}

// GetSubscription fetches one subscription by id.
func (s *DB) GetSubscription(ctx context.Context, id int64) (_ *entity.Subscription, err error) {
	ctx, span := s.startSpan(ctx, "GetSubscription")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &sub, nil
}

// ListActiveSubscriptionsOverlapping returns active subscriptions whose
// window intersects [minDate, maxDate]. Callers still match per date.
func (s *DB) ListActiveSubscriptionsOverlapping(ctx context.Context, minDate, maxDate string) (_ []entity.Subscription, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveSubscriptionsOverlapping")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active AND status = 'active'
		  AND (
			(target_date IS NOT NULL AND target_date BETWEEN $1 AND $2)
			OR (target_date IS NULL AND range_start <= $2 AND range_end >= $1)
		  )
		ORDER BY id`, minDate, maxDate)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var subs []entity.Subscription
	for rows.Next() {
		sub, sErr := scanSubscription(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		subs = append(subs, sub)
	}

	return subs, s.mapError(rows.Err())
}

// ListRangeSubscriptionsEnding returns active range subscriptions whose end
// date is one of the given dates.
func (s *DB) ListRangeSubscriptionsEnding(ctx context.Context, endDates []string) (_ []entity.Subscription, err error) {
	ctx, span := s.startSpan(ctx, "ListRangeSubscriptionsEnding")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active AND status = 'active'
		  AND target_date IS NULL
		  AND range_end::text = ANY($1)
		ORDER BY id`, endDates)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var subs []entity.Subscription
	for rows.Next() {
		sub, sErr := scanSubscription(rows)
		if sErr != nil {
			return nil, s.mapError(sErr)
		}
		subs = append(subs, sub)
	}

	return subs, s.mapError(rows.Err())
}

// CompleteElapsedSubscriptions marks subscriptions whose window fully
// elapsed before today as completed and returns how many were updated.
func (s *DB) CompleteElapsedSubscriptions(ctx context.Context, today string, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CompleteElapsedSubscriptions")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'completed', is_active = FALSE, updated_at = $2
		WHERE is_active AND status = 'active'
		  AND COALESCE(target_date, range_end) < $1`, today, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// HasActiveSubscription reports whether the user owns at least one active
// subscription.
func (s *DB) HasActiveSubscription(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "HasActiveSubscription")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND is_active AND status = 'active'
		)`, userID).Scan(&exists)

	return exists, s.mapError(err)
}
