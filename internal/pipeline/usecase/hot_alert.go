package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// RunHotAlert notifies every active user about the single soonest date
// within the next 3 days that has open times. The dedup key is derived
// from the date itself, so the same soonest date is announced at most once
// per user per 24 hours.
func (s *Usecase) RunHotAlert(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunHotAlert")
	defer span.End()

	started := s.clock.Now()

	snapshot, err := s.source.Scan(ctx, s.datesUpTo(3))
	if err != nil {
		return entity.RunSummary{}, err
	}

	soonest, ok := entity.SoonestAvailable(snapshot, s.today(), s.dateOffset(3))
	if !ok {
		return s.summarize(started, entity.RunResult{}), nil
	}

	pushPayload, emailMsg := s.buildHotAlert(soonest)
	dedupKey := entity.DedupKeyDates(entity.CategoryHotAlert, []string{soonest.Date})

	users, err := s.repoDB.ListActiveUsers(ctx)
	if err != nil {
		return entity.RunSummary{}, err
	}

	var result entity.RunResult
	for _, user := range users {
		sent, sErr := s.sendProactive(ctx, proactiveDelivery{
			user:         user,
			category:     entity.CategoryHotAlert,
			dedupKey:     dedupKey,
			relatedDates: []string{soonest.Date},
			window:       24 * time.Hour,
			push:         pushPayload,
			email:        emailMsg,
		})
		if sErr != nil {
			slog.ErrorContext(ctx, "hot alert failed for user",
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

	slog.InfoContext(ctx, "hot alert run finished",
		"date", soonest.Date, "sent", result.Sent, "skipped", result.Skipped)

	return s.summarize(started, result), nil
}
