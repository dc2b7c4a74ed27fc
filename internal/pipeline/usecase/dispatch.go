package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// dispatch sends one notification through the user's configured channels.
// Channels are attempted independently; a failing channel is captured in
// the result, never raised. For method "both" the delivery counts as
// successful when either channel got through.
func (s *Usecase) dispatch(ctx context.Context, user entity.User, method entity.Method, email entity.EmailMessage, push entity.PushPayload) entity.DispatchResult {
	ctx, span := s.startSpan(ctx, "dispatch")
	defer span.End()

	if method == entity.MethodUnknown {
		method = entity.MethodBoth
	}

	var res entity.DispatchResult

	if method.WantsEmail() {
		if err := s.repoMail.Send(ctx, user.Email, email); err != nil {
			res.EmailError = err.Error()
			slog.WarnContext(ctx, "email channel failed",
				"user_id", user.ID, "error", err)
		} else {
			res.EmailSent = true
		}
	}

	if method.WantsPush() {
		delivered, failed, err := s.pushFanout(ctx, user.ID, push)
		res.PushDelivered = delivered
		res.PushFailed = failed

		switch {
		case err != nil:
			res.PushError = err.Error()
			slog.WarnContext(ctx, "push channel failed",
				"user_id", user.ID, "error", err)
		case delivered > 0:
			res.PushSent = true
		case failed > 0:
			res.PushError = fmt.Sprintf("all %d push endpoints failed", failed)
		default:
			res.PushError = "no active push endpoints"
		}
	}

	switch method {
	case entity.MethodEmail:
		res.Success = res.EmailSent
	case entity.MethodPush:
		res.Success = res.PushSent
	default:
		res.Success = res.EmailSent || res.PushSent
	}

	if res.Success && method == entity.MethodBoth && (!res.EmailSent || !res.PushSent) {
		slog.InfoContext(ctx, "partial channel success",
			"user_id", user.ID, "email_sent", res.EmailSent, "push_sent", res.PushSent)
	}

	return res
}

// dispatchError flattens a failed result into one message for the queue
// item's error column.
func dispatchError(res entity.DispatchResult) string {
	var parts []string
	if res.EmailError != "" {
		parts = append(parts, "email: "+res.EmailError)
	}
	if res.PushError != "" {
		parts = append(parts, "push: "+res.PushError)
	}
	if len(parts) == 0 {
		return "no channel delivered"
	}

	msg := parts[0]
	for _, p := range parts[1:] {
		msg += "; " + p
	}
	return msg
}
