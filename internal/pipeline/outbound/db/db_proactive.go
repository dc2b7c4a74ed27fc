package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// ReserveProactiveLog inserts the log row unless the user already has one
// with the same dedup key at or after the cutoff. The conditional insert is
// the at-most-once fence: concurrent detector runs race on this statement,
// and only the one that inserts may dispatch. Returns whether the row was
// inserted. A zero cutoff means any prior row blocks, regardless of age.
func (s *DB) ReserveProactiveLog(ctx context.Context, log entity.ProactiveLog, since time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ReserveProactiveLog")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO proactive_notification_logs
			(id, user_id, category, related_dates, dedup_key,
			 push_sent, email_sent, in_app_sent, sent_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM proactive_notification_logs
			WHERE user_id = $2 AND dedup_key = $5 AND sent_at >= $10
		)`,
		log.ID, log.UserID, log.Category.String(), log.RelatedDates, log.DedupKey,
		log.PushSent, log.EmailSent, log.InAppSent, log.SentAt, since)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetProactiveLogOutcome records which channels actually delivered, after
// the dispatch that the reservation fenced.
func (s *DB) SetProactiveLogOutcome(ctx context.Context, id int64, pushSent, emailSent bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetProactiveLogOutcome")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE proactive_notification_logs
		SET push_sent = $2, email_sent = $3
		WHERE id = $1`, id, pushSent, emailSent)

	return s.mapError(err)
}

// DeleteProactiveLog releases a reservation whose dispatch failed on every
// channel, so the user is not silently blocked for the whole dedup window.
func (s *DB) DeleteProactiveLog(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteProactiveLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		DELETE FROM proactive_notification_logs
		WHERE id = $1`, id)

	return s.mapError(err)
}
