package inbound

import (
	"context"
	"errors"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/usecase"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/idempotency"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc     uc
	locker idempotency.Locker
}

// runLocked executes one pipeline job under the same Redis run lock the
// scheduler uses, so a manual trigger can never overlap a cron run of the
// same job.
func (h *HTTPEndpoint) runLocked(ctx context.Context, name string, run func(context.Context) (entity.RunSummary, error)) (entity.RunSummary, error) {
	var summary entity.RunSummary
	err := h.locker.Exec(ctx, name, runLockTTL, func(ctx context.Context) error {
		var rErr error
		summary, rErr = run(ctx)
		return rErr
	})
	if errors.Is(err, idempotency.ErrAlreadyRunning) {
		return entity.RunSummary{}, goerror.NewBusiness("a run of this job is already in progress", goerror.CodeTooManyRequest)
	}
	return summary, err
}

// EndpointRegister stores or re-activates a browser push endpoint.
func (h *HTTPEndpoint) EndpointRegister(r *router.Request) (any, error) {
	var req endpointRegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.EndpointRegister(r.Context(), usecase.EndpointRegisterInput{
		UserID:     req.UserID,
		Endpoint:   req.Endpoint,
		P256dh:     req.P256dh,
		Auth:       req.Auth,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}

// EndpointRemove deletes a push endpoint by its URL.
func (h *HTTPEndpoint) EndpointRemove(r *router.Request) (any, error) {
	var req endpointRemoveRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.EndpointRemove(r.Context(), req.Endpoint); err != nil {
		return nil, err
	}

	return nil, nil
}

// NotificationList returns a user's in-app notifications, newest first.
func (h *HTTPEndpoint) NotificationList(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	notifs, err := h.uc.NotificationList(r.Context(), userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return newNotificationResponses(notifs), nil
}

// NotificationMarkRead marks one in-app notification as read.
func (h *HTTPEndpoint) NotificationMarkRead(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.NotificationMarkRead(r.Context(), userID, id); err != nil {
		return nil, err
	}

	return nil, nil
}

// Health reports process liveness for load balancers and uptime checks.
func (h *HTTPEndpoint) Health(_ *router.Request) (any, error) {
	return healthResponse{Status: "ok"}, nil
}

// Run starts a full pipeline run: scan, match, and queue drain.
func (h *HTTPEndpoint) Run(r *router.Request) (any, error) {
	summary, err := h.runLocked(r.Context(), "match", h.uc.RunMatch)
	if err != nil {
		return nil, err
	}

	return newRunResponse(summary), nil
}

// RunDetector starts a single proactive detector by name.
func (h *HTTPEndpoint) RunDetector(r *router.Request) (any, error) {
	var (
		job string
		run func(context.Context) (entity.RunSummary, error)
	)

	switch r.GetParam("name") {
	case "hot-alert":
		job, run = "hot_alert", h.uc.RunHotAlert
	case "opportunity":
		job, run = "opportunity", h.uc.RunOpportunity
	case "weekly-digest":
		job, run = "weekly_digest", h.uc.RunWeeklyDigest
	case "expiry-reminder":
		job, run = "expiry_reminder", h.uc.RunExpiryReminder
	case "inactivity-nudge":
		job, run = "inactivity_nudge", h.uc.RunInactivityNudge
	default:
		return nil, goerror.NewInvalidFormat("unknown detector name")
	}

	summary, err := h.runLocked(r.Context(), job, run)
	if err != nil {
		return nil, err
	}

	return newRunResponse(summary), nil
}

// SendConfirmation delivers a subscription confirmation immediately.
func (h *HTTPEndpoint) SendConfirmation(r *router.Request) (any, error) {
	subID, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	res, err := h.uc.SendConfirmation(r.Context(), subID)
	if err != nil {
		return nil, err
	}

	return confirmationResponse{
		Success:   res.Success,
		EmailSent: res.EmailSent,
		PushSent:  res.PushSent,
	}, nil
}
