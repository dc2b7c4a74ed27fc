package usecase

import (
	"context"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/samber/lo"
)

// matchSnapshot intersects one availability snapshot with the active
// subscriptions and enqueues one grouped queue item per subscription that
// has genuinely new times. Returns how many items were created.
func (s *Usecase) matchSnapshot(ctx context.Context, snapshot []entity.DaySlot) (int, error) {
	ctx, span := s.startSpan(ctx, "matchSnapshot")
	defer span.End()

	available := lo.Filter(snapshot, func(day entity.DaySlot, _ int) bool {
		return day.Available && len(day.Times) > 0
	})
	if len(available) == 0 {
		return 0, nil
	}

	minDate := available[0].Date
	maxDate := available[0].Date
	for _, day := range available {
		if day.Date < minDate {
			minDate = day.Date
		}
		if day.Date > maxDate {
			maxDate = day.Date
		}
	}

	subs, err := s.repoDB.ListActiveSubscriptionsOverlapping(ctx, minDate, maxDate)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range subs {
		appointments, mErr := s.newAppointmentsFor(ctx, sub, available)
		if mErr != nil {
			slog.ErrorContext(ctx, "matcher failed for subscription",
				"subscription_id", sub.ID, "error", mErr)
			continue
		}
		if len(appointments) == 0 {
			continue
		}

		pending, pErr := s.repoDB.HasPendingQueueItem(ctx, sub.ID)
		if pErr != nil {
			slog.ErrorContext(ctx, "matcher failed to check pending items",
				"subscription_id", sub.ID, "error", pErr)
			continue
		}
		if pending {
			continue
		}

		item := entity.QueueItem{
			ID:             s.uid.Generate(),
			SubscriptionID: sub.ID,
			Appointments:   appointments,
			Status:         entity.QueueStatusPending,
			CreatedAt:      s.now(),
		}
		if cErr := s.repoDB.CreateQueueItem(ctx, item); cErr != nil {
			slog.ErrorContext(ctx, "matcher failed to enqueue",
				"subscription_id", sub.ID, "error", cErr)
			continue
		}

		created++
		slog.InfoContext(ctx, "queued subscription match",
			"subscription_id", sub.ID, "dates", len(appointments))
	}

	return created, nil
}

// newAppointmentsFor returns, per covered date, the times not yet present
// in any dedup ledger row for that subscription and date. Dates whose
// times were all notified before produce no entry.
func (s *Usecase) newAppointmentsFor(ctx context.Context, sub entity.Subscription, available []entity.DaySlot) ([]entity.Appointment, error) {
	var appointments []entity.Appointment

	for _, day := range available {
		if !sub.Covers(day.Date) {
			continue
		}

		notified, err := s.repoDB.ListNotifiedTimes(ctx, sub.ID, day.Date)
		if err != nil {
			return nil, err
		}

		newTimes, _ := lo.Difference(lo.Uniq(day.Times), notified)
		if len(newTimes) == 0 {
			continue
		}

		appointments = append(appointments, entity.Appointment{
			Date:  day.Date,
			Times: newTimes,
		})
	}

	return appointments, nil
}
