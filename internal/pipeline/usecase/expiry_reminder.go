package usecase

import (
	"context"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// RunExpiryReminder warns owners of range subscriptions ending today or
// tomorrow. The dedup key binds subscription id and end date, so each
// subscription gets exactly one reminder per end date regardless of how
// often the detector runs.
func (s *Usecase) RunExpiryReminder(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunExpiryReminder")
	defer span.End()

	started := s.clock.Now()

	endDates := []string{s.today(), s.dateOffset(1)}
	subs, err := s.repoDB.ListRangeSubscriptionsEnding(ctx, endDates)
	if err != nil {
		return entity.RunSummary{}, err
	}

	var result entity.RunResult
	for _, sub := range subs {
		user, uErr := s.repoDB.GetUser(ctx, sub.UserID)
		if uErr != nil {
			slog.ErrorContext(ctx, "expiry reminder failed to load user",
				"subscription_id", sub.ID, "user_id", sub.UserID, "error", uErr)
			result.Failed++
			continue
		}

		pushPayload, emailMsg := s.buildExpiryReminder(sub)

		sent, sErr := s.sendProactive(ctx, proactiveDelivery{
			user:         *user,
			category:     entity.CategoryExpiryReminder,
			dedupKey:     entity.DedupKeySubscription(entity.CategoryExpiryReminder, sub.ID, sub.RangeEnd),
			relatedDates: []string{sub.RangeEnd},
			push:         pushPayload,
			email:        emailMsg,
		})
		if sErr != nil {
			slog.ErrorContext(ctx, "expiry reminder failed",
				"subscription_id", sub.ID, "error", sErr)
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
