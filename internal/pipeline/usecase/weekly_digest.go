package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// RunWeeklyDigest aggregates the next 7 days of availability into one
// summary per user. The 7-day dedup window keeps it to once per week.
func (s *Usecase) RunWeeklyDigest(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunWeeklyDigest")
	defer span.End()

	started := s.clock.Now()

	snapshot, err := s.source.Scan(ctx, s.datesUpTo(7))
	if err != nil {
		return entity.RunSummary{}, err
	}

	days := entity.AvailableWithin(snapshot, s.today(), s.dateOffset(7))
	if len(days) == 0 {
		return s.summarize(started, entity.RunResult{}), nil
	}

	pushPayload, emailMsg := s.buildWeeklyDigest(days)

	users, err := s.repoDB.ListActiveUsers(ctx)
	if err != nil {
		return entity.RunSummary{}, err
	}

	relatedDates := make([]string, 0, len(days))
	for _, day := range days {
		relatedDates = append(relatedDates, day.Date)
	}

	var result entity.RunResult
	for _, user := range users {
		sent, sErr := s.sendProactive(ctx, proactiveDelivery{
			user:         user,
			category:     entity.CategoryWeeklyDigest,
			dedupKey:     entity.DedupKeyDaily(entity.CategoryWeeklyDigest, user.ID),
			relatedDates: relatedDates,
			window:       7 * 24 * time.Hour,
			push:         pushPayload,
			email:        emailMsg,
		})
		if sErr != nil {
			slog.ErrorContext(ctx, "weekly digest failed for user",
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
