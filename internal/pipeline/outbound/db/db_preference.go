package db

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// GetPreferences fetches the user's saved notification policy. Returns
// goerror.ErrNotFound when the user never saved one; callers fall back to
// entity.DefaultPreferences.
func (s *DB) GetPreferences(ctx context.Context, userID int64) (_ *entity.Preferences, err error) {
	ctx, span := s.startSpan(ctx, "GetPreferences")
	defer func() { s.endSpan(span, err) }()

	var (
		p      entity.Preferences
		method string
	)
	err = s.conn.QueryRow(ctx, `
		SELECT user_id, default_notification_method,
		       hot_alerts_enabled, weekly_digest_enabled, expiry_reminders_enabled,
		       inactivity_enabled, opportunity_enabled,
		       max_notifications_per_day, notification_cooldown_minutes,
		       quiet_hours_start, quiet_hours_end,
		       last_proactive_notification_at, updated_at
		FROM user_preferences
		WHERE user_id = $1`, userID).Scan(
		&p.UserID, &method,
		&p.HotAlertsEnabled, &p.WeeklyDigestEnabled, &p.ExpiryRemindersEnabled,
		&p.InactivityEnabled, &p.OpportunityEnabled,
		&p.MaxNotificationsPerDay, &p.CooldownMinutes,
		&p.QuietHoursStart, &p.QuietHoursEnd,
		&p.LastProactiveAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	p.DefaultMethod = entity.MethodFromString(method)

	return &p, nil
}

// TouchLastProactiveAt upserts the timestamp of the user's most recent
// proactive notification.
func (s *DB) TouchLastProactiveAt(ctx context.Context, userID int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "TouchLastProactiveAt")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO user_preferences (user_id, last_proactive_notification_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET last_proactive_notification_at = $2, updated_at = $2`, userID, at)

	return s.mapError(err)
}
