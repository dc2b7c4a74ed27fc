package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// InsertNotifiedIfAbsent writes one dedup ledger row, treating a uniqueness
// conflict as "already existed" rather than an error. This makes ledger
// writes idempotent under retries and overlapping runs.
func (s *DB) InsertNotifiedIfAbsent(ctx context.Context, row entity.NotifiedAppointment) (alreadyExisted bool, err error) {
	ctx, span := s.startSpan(ctx, "InsertNotifiedIfAbsent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO notified_appointments
			(id, subscription_id, appointment_date, notified_times, times_key, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subscription_id, appointment_date, times_key) DO NOTHING`,
		row.ID, row.SubscriptionID, row.AppointmentDate, row.Times,
		entity.TimesKey(row.Times), row.SentAt)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 0, nil
}

// ListNotifiedTimes returns every time already notified for the
// subscription and date, across all prior ledger rows.
func (s *DB) ListNotifiedTimes(ctx context.Context, subscriptionID int64, date string) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifiedTimes")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT notified_times
		FROM notified_appointments
		WHERE subscription_id = $1 AND appointment_date = $2`, subscriptionID, date)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var times []string
		if sErr := rows.Scan(&times); sErr != nil {
			return nil, s.mapError(sErr)
		}
		all = append(all, times...)
	}

	return all, s.mapError(rows.Err())
}

// HasRecentNotified reports whether the exact (subscription, date, time
// set) combination was already notified since the cutoff.
func (s *DB) HasRecentNotified(ctx context.Context, subscriptionID int64, date string, times []string, since time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "HasRecentNotified")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notified_appointments
			WHERE subscription_id = $1 AND appointment_date = $2
			  AND times_key = $3 AND sent_at >= $4
		)`, subscriptionID, date, entity.TimesKey(times), since).Scan(&exists)

	return exists, s.mapError(err)
}
