package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
)

type (
	EndpointRegisterInput struct {
		UserID     *int64
		Endpoint   string `validate:"required,url"`
		P256dh     string `validate:"required"`
		Auth       string `validate:"required"`
		DeviceType string `validate:"omitempty,oneof=desktop mobile tablet"`
	}
)

// EndpointRegister stores a browser push registration. Registering the
// same endpoint URL again re-keys and reactivates it.
func (s *Usecase) EndpointRegister(ctx context.Context, in EndpointRegisterInput) error {
	ctx, span := s.startSpan(ctx, "EndpointRegister")
	defer span.End()

	in.Endpoint = strings.TrimSpace(in.Endpoint)
	in.DeviceType = strings.ToLower(strings.TrimSpace(in.DeviceType))
	if in.DeviceType == "" {
		in.DeviceType = "desktop"
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.repoDB.UpsertEndpoint(ctx, entity.PushEndpoint{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		Endpoint:   in.Endpoint,
		P256dh:     in.P256dh,
		Auth:       in.Auth,
		DeviceType: in.DeviceType,
		IsActive:   true,
		CreatedAt:  s.now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert push endpoint", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// EndpointRemove deletes a registration on explicit unsubscribe.
func (s *Usecase) EndpointRemove(ctx context.Context, endpoint string) error {
	ctx, span := s.startSpan(ctx, "EndpointRemove")
	defer span.End()

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return goerror.NewInvalidFormat("endpoint is required")
	}

	err := s.repoDB.DeleteEndpointByURL(ctx, endpoint)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("push endpoint not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete push endpoint", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
