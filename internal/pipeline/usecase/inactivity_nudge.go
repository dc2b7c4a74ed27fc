package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

const inactivityThreshold = 7 * 24 * time.Hour

// RunInactivityNudge reaches out to users who have not opened the app for
// a week, but only when something is actually bookable within 14 days.
// The 7-day window throttles nudges independently of cooldown settings.
func (s *Usecase) RunInactivityNudge(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunInactivityNudge")
	defer span.End()

	started := s.clock.Now()

	snapshot, err := s.source.Scan(ctx, s.datesUpTo(14))
	if err != nil {
		return entity.RunSummary{}, err
	}

	soonest, ok := entity.SoonestAvailable(snapshot, s.today(), s.dateOffset(14))
	if !ok {
		return s.summarize(started, entity.RunResult{}), nil
	}

	users, err := s.repoDB.ListInactiveUsers(ctx, s.now().Add(-inactivityThreshold))
	if err != nil {
		return entity.RunSummary{}, err
	}

	pushPayload, emailMsg := s.buildInactivityNudge(soonest)

	var result entity.RunResult
	for _, user := range users {
		sent, sErr := s.sendProactive(ctx, proactiveDelivery{
			user:         user,
			category:     entity.CategoryInactivityNudge,
			dedupKey:     entity.DedupKeyDaily(entity.CategoryInactivityNudge, user.ID),
			relatedDates: []string{soonest.Date},
			window:       7 * 24 * time.Hour,
			push:         pushPayload,
			email:        emailMsg,
		})
		if sErr != nil {
			slog.ErrorContext(ctx, "inactivity nudge failed",
				"user_id", user.ID, "error", sErr)
			result.Failed++
			continue
		}
		if sent {
			result.Sent++
		} else {
			result.Skipped++
		}
	}

	return s.summarize(started, result), nil
}
