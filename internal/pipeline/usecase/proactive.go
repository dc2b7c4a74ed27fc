package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

// proactivedelivery bundles everything a detector decided to send to one
// user, plus the dedup policy that keeps it at-most-once.
type proactiveDelivery struct {
	user         entity.User
	category     entity.Category
	dedupKey     string
	relatedDates []string
	// window is the rolling dedup window; zero means "once ever while the
	// dedup key holds" (expiry reminders).
	window time.Duration
	push   entity.PushPayload
	email  entity.EmailMessage
}

// sendProactive runs the shared tail of every detector: eligibility gate,
// dedup reservation, channel dispatch, then the outcome and in-app record.
// The reservation is a conditional insert into the proactive log, so two
// overlapping invocations (cron plus a manual trigger, or two replicas)
// cannot both dispatch the same dedup key. Returns whether a real delivery
// happened.
func (s *Usecase) sendProactive(ctx context.Context, d proactiveDelivery) (bool, error) {
	ctx, span := s.startSpan(ctx, "sendProactive")
	defer span.End()

	elig, err := s.Evaluate(ctx, d.user.ID, d.category)
	if err != nil {
		return false, err
	}
	if !elig.Allowed {
		slog.DebugContext(ctx, "proactive delivery blocked",
			"user_id", d.user.ID, "category", d.category.String(), "reason", elig.Reason.String())
		return false, nil
	}

	now := s.now()
	cutoff := time.Time{}
	if d.window > 0 {
		cutoff = now.Add(-d.window)
	}

	logID := s.uid.Generate()
	inserted, err := s.repoDB.ReserveProactiveLog(ctx, entity.ProactiveLog{
		ID:           logID,
		UserID:       d.user.ID,
		Category:     d.category,
		RelatedDates: d.relatedDates,
		DedupKey:     d.dedupKey,
		InAppSent:    true,
		SentAt:       now,
	}, cutoff)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	method := s.preferredMethod(ctx, d.user.ID)

	res := s.dispatch(ctx, d.user, method, d.email, d.push)
	if !res.Success {
		slog.WarnContext(ctx, "proactive delivery failed",
			"user_id", d.user.ID, "category", d.category.String(), "error", dispatchError(res))
		if dErr := s.repoDB.DeleteProactiveLog(ctx, logID); dErr != nil {
			slog.ErrorContext(ctx, "failed to release proactive reservation",
				"user_id", d.user.ID, "dedup_key", d.dedupKey, "error", dErr)
		}
		return false, nil
	}

	if err := s.repoDB.SetProactiveLogOutcome(ctx, logID, res.PushSent, res.EmailSent); err != nil {
		slog.ErrorContext(ctx, "failed to record proactive outcome",
			"user_id", d.user.ID, "dedup_key", d.dedupKey, "error", err)
	}

	if err := s.repoDB.CreateNotification(ctx, entity.Notification{
		ID:        s.uid.Generate(),
		UserID:    d.user.ID,
		Category:  d.category,
		Title:     d.push.Title,
		Body:      d.push.Body,
		CreatedAt: now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to create in-app notification",
			"user_id", d.user.ID, "error", err)
	}

	if err := s.repoDB.TouchLastProactiveAt(ctx, d.user.ID, now); err != nil {
		slog.ErrorContext(ctx, "failed to touch last proactive timestamp",
			"user_id", d.user.ID, "error", err)
	}

	return true, nil
}

// preferredMethod resolves the channel set for proactive sends from the
// user's saved preferences, defaulting to push.
func (s *Usecase) preferredMethod(ctx context.Context, userID int64) entity.Method {
	prefs, err := s.repoDB.GetPreferences(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.DefaultPreferences(userID).DefaultMethod
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to load preferences, defaulting to push",
			"user_id", userID, "error", err)
		return entity.MethodPush
	}
	if prefs.DefaultMethod == entity.MethodUnknown {
		return entity.MethodPush
	}

	return prefs.DefaultMethod
}
