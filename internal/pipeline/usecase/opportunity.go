package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// RunOpportunity tells users who have no active subscription that slots
// are open within the next 7 days, at most once per user per 24 hours.
func (s *Usecase) RunOpportunity(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunOpportunity")
	defer span.End()

	started := s.clock.Now()

	snapshot, err := s.source.Scan(ctx, s.datesUpTo(7))
	if err != nil {
		return entity.RunSummary{}, err
	}

	soonest, ok := entity.SoonestAvailable(snapshot, s.today(), s.dateOffset(7))
	if !ok {
		return s.summarize(started, entity.RunResult{}), nil
	}

	pushPayload, emailMsg := s.buildOpportunity(soonest)

	users, err := s.repoDB.ListActiveUsers(ctx)
	if err != nil {
		return entity.RunSummary{}, err
	}

	var result entity.RunResult
	for _, user := range users {
		subscribed, sErr := s.repoDB.HasActiveSubscription(ctx, user.ID)
		if sErr != nil {
			slog.ErrorContext(ctx, "opportunity subscription check failed",
				"user_id", user.ID, "error", sErr)
			result.Failed++
			continue
		}
		if subscribed {
			result.Skipped++
			continue
		}

		sent, sErr := s.sendProactive(ctx, proactiveDelivery{
			user:         user,
			category:     entity.CategoryOpportunity,
			dedupKey:     entity.DedupKeyDaily(entity.CategoryOpportunity, user.ID),
			relatedDates: []string{soonest.Date},
			window:       24 * time.Hour,
			push:         pushPayload,
			email:        emailMsg,
		})
		if sErr != nil {
			slog.ErrorContext(ctx, "opportunity notification failed",
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
