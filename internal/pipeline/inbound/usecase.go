package inbound

import (
	"context"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/usecase"
)

type ucRunner interface {
	RunMatch(ctx context.Context) (entity.RunSummary, error)
	RunHotAlert(ctx context.Context) (entity.RunSummary, error)
	RunOpportunity(ctx context.Context) (entity.RunSummary, error)
	RunWeeklyDigest(ctx context.Context) (entity.RunSummary, error)
	RunExpiryReminder(ctx context.Context) (entity.RunSummary, error)
	RunInactivityNudge(ctx context.Context) (entity.RunSummary, error)
}

type uc interface {
	ucRunner

	EndpointRegister(ctx context.Context, in usecase.EndpointRegisterInput) error
	EndpointRemove(ctx context.Context, endpoint string) error
	SendConfirmation(ctx context.Context, subscriptionID int64) (entity.DispatchResult, error)
	NotificationList(ctx context.Context, userID int64, limit, offset int32) ([]entity.Notification, error)
	NotificationMarkRead(ctx context.Context, userID, notificationID int64) error
}
