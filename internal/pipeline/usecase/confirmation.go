package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

// SendConfirmation delivers the "your subscription is live" message after
// the web app creates a subscription. Confirmations are transactional and
// bypass the eligibility gate, mirroring how they cannot be opted out of.
func (s *Usecase) SendConfirmation(ctx context.Context, subscriptionID int64) (entity.DispatchResult, error) {
	ctx, span := s.startSpan(ctx, "SendConfirmation")
	defer span.End()

	sub, err := s.repoDB.GetSubscription(ctx, subscriptionID)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.DispatchResult{}, goerror.NewBusiness("subscription not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load subscription for confirmation",
			"subscription_id", subscriptionID, "error", err)
		return entity.DispatchResult{}, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUser(ctx, sub.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.DispatchResult{}, goerror.NewBusiness("subscription owner not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load user for confirmation",
			"user_id", sub.UserID, "error", err)
		return entity.DispatchResult{}, goerror.NewServer(err)
	}

	pushPayload, emailMsg := s.buildConfirmation(*sub)

	res := s.dispatch(ctx, *user, sub.Method, emailMsg, pushPayload)
	if res.Success {
		if cErr := s.repoDB.CreateNotification(ctx, entity.Notification{
			ID:        s.uid.Generate(),
			UserID:    user.ID,
			Category:  entity.CategoryConfirmation,
			Title:     pushPayload.Title,
			Body:      pushPayload.Body,
			CreatedAt: s.now(),
		}); cErr != nil {
			slog.ErrorContext(ctx, "failed to record confirmation notification",
				"user_id", user.ID, "error", cErr)
		}
	}

	return res, nil
}
