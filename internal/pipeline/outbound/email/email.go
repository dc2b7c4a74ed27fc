package email

import (
	"context"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// Send delivers one rendered notification email to the given address.
func (m *Mail) Send(ctx context.Context, to string, msg entity.EmailMessage) error {
	ctx, span := m.ins.Tracer("pipeline.outbound.email").Start(ctx, "Send")
	defer span.End()

	err := m.client.Send(ctx, mail.Message{
		To:       to,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
