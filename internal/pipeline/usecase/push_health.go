package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goroutine"
)

// pushFanout delivers one payload to every active endpoint of the user.
// Sends run concurrently and all settle before the result is aggregated;
// one endpoint's failure never aborts its siblings. Per-user push success
// means at least one device was reached.
func (s *Usecase) pushFanout(ctx context.Context, userID int64, payload entity.PushPayload) (delivered, failed int, err error) {
	ctx, span := s.startSpan(ctx, "pushFanout")
	defer span.End()

	endpoints, err := s.repoDB.ListActiveEndpoints(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if len(endpoints) == 0 {
		return 0, 0, nil
	}

	var mu sync.Mutex
	mgr := goroutine.NewManager(len(endpoints))

	for _, ep := range endpoints {
		mgr.Go(ctx, func(ctx context.Context) error {
			ok := s.sendToEndpoint(ctx, ep, payload)

			mu.Lock()
			if ok {
				delivered++
			} else {
				failed++
			}
			mu.Unlock()

			return nil
		})
	}

	// Send outcomes are already tallied per endpoint; manager errors only
	// cover panics and cancellation.
	if wErr := mgr.Wait(); wErr != nil {
		slog.WarnContext(ctx, "push fan-out finished with goroutine errors",
			"user_id", userID, "error", wErr)
	}

	return delivered, failed, nil
}

// sendToEndpoint performs one push send and records the endpoint's health
// transition. Returns whether the endpoint was reached.
func (s *Usecase) sendToEndpoint(ctx context.Context, ep entity.PushEndpoint, payload entity.PushPayload) bool {
	outcome, err := s.repoPush.Send(ctx, ep, payload)
	now := s.now()

	if err == nil && !outcome.Permanent && outcome.StatusCode < 400 {
		if rErr := s.repoDB.RecordEndpointSuccess(ctx, ep.ID, now); rErr != nil {
			slog.ErrorContext(ctx, "failed to record push success",
				"endpoint_id", ep.ID, "error", rErr)
		}
		return true
	}

	reason := fmt.Sprintf("status %d", outcome.StatusCode)
	if err != nil {
		reason = err.Error()
		if outcome.StatusCode > 0 {
			reason = fmt.Sprintf("status %d: %s", outcome.StatusCode, err.Error())
		}
	}

	failures := ep.ConsecutiveFailures + 1
	deactivate := false

	switch {
	case outcome.Permanent:
		deactivate = true
		reason = "permanent failure, " + reason
	case failures >= entity.MaxConsecutivePushFailures:
		deactivate = true
		reason = fmt.Sprintf("auto-disabled after %d consecutive failures, last: %s",
			failures, reason)
	}

	if rErr := s.repoDB.RecordEndpointFailure(ctx, ep.ID, failures, reason, deactivate, now); rErr != nil {
		slog.ErrorContext(ctx, "failed to record push failure",
			"endpoint_id", ep.ID, "error", rErr)
	}

	if deactivate {
		slog.InfoContext(ctx, "push endpoint deactivated",
			"endpoint_id", ep.ID, "reason", reason)
	}

	return false
}
