package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

// NotificationList returns the user's in-app notifications, newest first.
func (s *Usecase) NotificationList(ctx context.Context, userID int64, limit, offset int32) ([]entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "NotificationList")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repoDB.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notifications",
			"user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}

// NotificationMarkRead stamps one in-app notification as read.
func (s *Usecase) NotificationMarkRead(ctx context.Context, userID, notificationID int64) error {
	ctx, span := s.startSpan(ctx, "NotificationMarkRead")
	defer span.End()

	err := s.repoDB.MarkNotificationRead(ctx, userID, notificationID, s.now())
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("notification not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark notification read",
			"user_id", userID, "notification_id", notificationID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
