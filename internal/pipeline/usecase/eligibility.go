package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/clock"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

// Eligibility is the gate's verdict. Detail carries observability context
// such as remaining cooldown minutes.
type Eligibility struct {
	Allowed bool
	Reason  entity.BlockReason
	Detail  string
}

// Evaluate applies the user's notification policy for one category. Checks
// run in a fixed order and short-circuit on the first block: category
// opt-out, quiet hours, daily cap, cooldown. Policy blocks are expected
// outcomes, never errors. Eligibility is scoped per user, not per
// subscription, so multi-subscription users share one budget.
func (s *Usecase) Evaluate(ctx context.Context, userID int64, category entity.Category) (Eligibility, error) {
	ctx, span := s.startSpan(ctx, "Evaluate")
	defer span.End()

	prefs, err := s.repoDB.GetPreferences(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		defaults := entity.DefaultPreferences(userID)
		prefs = &defaults
	} else if err != nil {
		return Eligibility{}, err
	}

	if !prefs.CategoryEnabled(category) {
		return Eligibility{Reason: entity.BlockReasonOptedOut}, nil
	}

	now := s.now()

	if prefs.HasQuietHours() && inQuietHours(now, *prefs.QuietHoursStart, *prefs.QuietHoursEnd) {
		return Eligibility{
			Reason: entity.BlockReasonQuietHours,
			Detail: fmt.Sprintf("quiet hours %s-%s", *prefs.QuietHoursStart, *prefs.QuietHoursEnd),
		}, nil
	}

	if prefs.MaxNotificationsPerDay > 0 {
		count, cErr := s.repoDB.CountNotificationsSince(ctx, userID, clock.StartOfDay(now))
		if cErr != nil {
			return Eligibility{}, cErr
		}
		if count >= int64(prefs.MaxNotificationsPerDay) {
			return Eligibility{
				Reason: entity.BlockReasonDailyLimit,
				Detail: fmt.Sprintf("%d of %d sent today", count, prefs.MaxNotificationsPerDay),
			}, nil
		}
	}

	if cooldown := s.cooldownFor(prefs, category); cooldown > 0 {
		lastAt, lErr := s.repoDB.LastNotificationAt(ctx, userID, category)
		if lErr != nil {
			return Eligibility{}, lErr
		}
		if lastAt != nil {
			elapsed := now.Sub(*lastAt)
			if elapsed < cooldown {
				remaining := (cooldown - elapsed).Round(time.Minute)
				slog.DebugContext(ctx, "delivery blocked by cooldown",
					"user_id", userID, "category", category.String(), "remaining", remaining.String())
				return Eligibility{
					Reason: entity.BlockReasonCooldown,
					Detail: fmt.Sprintf("%.0f minutes remaining", remaining.Minutes()),
				}, nil
			}
		}
	}

	return Eligibility{Allowed: true}, nil
}

// cooldownFor resolves the minimum spacing between deliveries of one
// category; each category carries its own budget. Proactive categories use
// the hour-based setting, subscription matches the user's cooldown minutes.
func (s *Usecase) cooldownFor(prefs *entity.Preferences, category entity.Category) time.Duration {
	switch category {
	case entity.CategoryAppointmentFound, entity.CategoryConfirmation:
		return time.Duration(prefs.CooldownMinutes) * time.Minute
	default:
		hours := s.cfg.GetInt32("pipeline.proactive_cooldown_hours")
		if hours <= 0 {
			hours = 4
		}
		return time.Duration(hours) * time.Hour
	}
}

// inQuietHours tests containment of now's local time-of-day in the
// configured window. A start later than the end means the window wraps
// midnight, so containment becomes "after start or before end".
func inQuietHours(now time.Time, start, end string) bool {
	cur := now.Format("15:04")
	if start > end {
		return cur >= start || cur <= end
	}
	return start <= cur && cur <= end
}
