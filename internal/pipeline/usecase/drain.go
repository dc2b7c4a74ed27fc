package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

// dedupWindow is the lookback used as a second dedup fence when draining,
// guarding against a re-matched item racing its own ledger write.
const dedupWindow = 24 * time.Hour

// drainQueue processes pending queue items oldest first, bounded by the
// per-run limit. A failing item is recorded and never halts the run.
// bookingURLs maps snapshot dates to booking links and may be empty.
func (s *Usecase) drainQueue(ctx context.Context, bookingURLs map[string]string) (entity.RunResult, error) {
	ctx, span := s.startSpan(ctx, "drainQueue")
	defer span.End()

	items, err := s.repoDB.ListPendingQueueItems(ctx, s.drainLimit)
	if err != nil {
		return entity.RunResult{}, err
	}

	var result entity.RunResult
	for _, item := range items {
		status := s.processItemSafely(ctx, item, bookingURLs)
		switch status {
		case entity.QueueStatusSent:
			result.Sent++
		case entity.QueueStatusSkipped:
			result.Skipped++
		case entity.QueueStatusDeferred:
			result.Deferred++
		case entity.QueueStatusFailed:
			result.Failed++
		}
	}

	return result, nil
}

// processItemSafely isolates one item: a panic inside processing is
// recovered, logged with the item id, and turned into a failed status.
func (s *Usecase) processItemSafely(ctx context.Context, item entity.QueueItem, bookingURLs map[string]string) (status entity.QueueStatus) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic while processing queue item",
				"item_id", item.ID, "because", rvr)
			msg := fmt.Sprintf("panic: %v", rvr)
			s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
			status = entity.QueueStatusFailed
		}
	}()

	return s.processItem(ctx, item, bookingURLs)
}

func (s *Usecase) processItem(ctx context.Context, item entity.QueueItem, bookingURLs map[string]string) entity.QueueStatus {
	sub, err := s.repoDB.GetSubscription(ctx, item.SubscriptionID)
	if errors.Is(err, goerror.ErrNotFound) {
		msg := "subscription no longer exists"
		return s.finishItem(ctx, item.ID, entity.QueueStatusSkipped, &msg)
	}
	if err != nil {
		msg := "load subscription: " + err.Error()
		return s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
	}
	if !sub.IsActive || sub.Status != entity.SubscriptionStatusActive {
		msg := "subscription is " + sub.Status.String()
		return s.finishItem(ctx, item.ID, entity.QueueStatusSkipped, &msg)
	}

	elig, err := s.Evaluate(ctx, sub.UserID, entity.CategoryAppointmentFound)
	if err != nil {
		msg := "eligibility: " + err.Error()
		return s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
	}
	if !elig.Allowed {
		msg := elig.Reason.String()
		if elig.Detail != "" {
			msg += ": " + elig.Detail
		}
		return s.finishItem(ctx, item.ID, entity.QueueStatusDeferred, &msg)
	}

	fresh, err := s.freshAppointments(ctx, sub.ID, item.Appointments)
	if err != nil {
		msg := "dedup check: " + err.Error()
		return s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
	}
	if len(fresh) == 0 {
		msg := "all dates already notified"
		return s.finishItem(ctx, item.ID, entity.QueueStatusSkipped, &msg)
	}

	if err := s.repoDB.UpdateQueueItemStatus(ctx, item.ID, entity.QueueStatusProcessing, nil, s.now()); err != nil {
		slog.ErrorContext(ctx, "failed to mark queue item processing",
			"item_id", item.ID, "error", err)
	}

	user, err := s.repoDB.GetUser(ctx, sub.UserID)
	if err != nil {
		msg := "load user: " + err.Error()
		return s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
	}

	bookingURL := ""
	for _, ap := range fresh {
		if u := bookingURLs[ap.Date]; u != "" {
			bookingURL = u
			break
		}
	}

	pushPayload, emailMsg := s.buildAppointmentFound(*sub, fresh, bookingURL)

	res := s.dispatch(ctx, *user, sub.Method, emailMsg, pushPayload)
	if !res.Success {
		msg := dispatchError(res)
		return s.finishItem(ctx, item.ID, entity.QueueStatusFailed, &msg)
	}

	s.recordDelivery(ctx, *sub, *user, fresh, pushPayload)

	return s.finishItem(ctx, item.ID, entity.QueueStatusSent, nil)
}

// freshAppointments drops dates whose exact time set was already notified
// inside the dedup window.
func (s *Usecase) freshAppointments(ctx context.Context, subscriptionID int64, appointments []entity.Appointment) ([]entity.Appointment, error) {
	since := s.now().Add(-dedupWindow)

	var fresh []entity.Appointment
	for _, ap := range appointments {
		seen, err := s.repoDB.HasRecentNotified(ctx, subscriptionID, ap.Date, ap.Times, since)
		if err != nil {
			return nil, err
		}
		if !seen {
			fresh = append(fresh, ap)
		}
	}

	return fresh, nil
}

// recordDelivery writes the dedup ledger rows and the in-app notification
// after a successful dispatch. Ledger conflicts mean another run already
// recorded the same delivery and are treated as success.
func (s *Usecase) recordDelivery(ctx context.Context, sub entity.Subscription, user entity.User, appointments []entity.Appointment, pushPayload entity.PushPayload) {
	now := s.now()

	for _, ap := range appointments {
		alreadyExisted, err := s.repoDB.InsertNotifiedIfAbsent(ctx, entity.NotifiedAppointment{
			ID:              s.uid.Generate(),
			SubscriptionID:  sub.ID,
			AppointmentDate: ap.Date,
			Times:           ap.Times,
			SentAt:          now,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to write dedup ledger row",
				"subscription_id", sub.ID, "date", ap.Date, "error", err)
			continue
		}
		if alreadyExisted {
			slog.DebugContext(ctx, "dedup ledger row already present",
				"subscription_id", sub.ID, "date", ap.Date)
		}
	}

	err := s.repoDB.CreateNotification(ctx, entity.Notification{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Category:  entity.CategoryAppointmentFound,
		Title:     pushPayload.Title,
		Body:      pushPayload.Body,
		CreatedAt: now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create in-app notification",
			"user_id", user.ID, "error", err)
	}
}

func (s *Usecase) finishItem(ctx context.Context, itemID int64, status entity.QueueStatus, msg *string) entity.QueueStatus {
	if err := s.repoDB.UpdateQueueItemStatus(ctx, itemID, status, msg, s.now()); err != nil {
		slog.ErrorContext(ctx, "failed to update queue item status",
			"item_id", itemID, "status", status.String(), "error", err)
	}
	return status
}
