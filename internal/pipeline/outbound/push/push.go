package push

import (
	"context"
	"encoding/json"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/push"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type WebPush struct {
	client push.Sender
	ins    instrument.Instrumentation
}

func New(client push.Sender, ins instrument.Instrumentation) *WebPush {
	return &WebPush{client: client, ins: ins}
}

// Send encrypts and delivers the payload to one endpoint. The outcome's
// Permanent flag is set for status codes that mean the registration will
// never work again (404, 410, 401).
func (p *WebPush) Send(ctx context.Context, ep entity.PushEndpoint, payload entity.PushPayload) (entity.PushSendOutcome, error) {
	ctx, span := p.ins.Tracer("pipeline.outbound.push").Start(ctx, "Send")
	defer span.End()

	raw, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.PushSendOutcome{}, err
	}

	res, err := p.client.Send(ctx, push.Subscription{
		Endpoint: ep.Endpoint,
		P256dh:   ep.P256dh,
		Auth:     ep.Auth,
	}, raw)

	outcome := entity.PushSendOutcome{
		StatusCode: res.StatusCode,
		Permanent:  res.Gone || res.StatusCode == 401,
	}
	span.SetAttributes(attribute.Int("push.status_code", res.StatusCode))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}
	if res.Gone {
		span.SetAttributes(attribute.Bool("push.endpoint_gone", true))
	}

	return outcome, nil
}
