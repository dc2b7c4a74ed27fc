package push

import (
	"context"
	"errors"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrVAPIDKeysRequired is returned when the key pair is missing.
var ErrVAPIDKeysRequired = errors.New("vapid public and private keys are required")

// WebPush is a Sender backed by the Web Push protocol with VAPID auth.
type WebPush struct {
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
}

// WebPushConfig configures the Web Push sender.
type WebPushConfig struct {
	// Subscriber is the contact address sent to the push service,
	// typically a mailto: address.
	Subscriber string
	// PublicKey is the VAPID public key.
	PublicKey string
	// PrivateKey is the VAPID private key.
	PrivateKey string
	// TTLSeconds is how long the push service should retain an
	// undelivered message.
	TTLSeconds int
}

// NewWebPush constructs a Web Push sender.
func NewWebPush(cfg WebPushConfig) (*WebPush, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, ErrVAPIDKeysRequired
	}

	ttl := cfg.TTLSeconds
	if ttl <= 0 {
		ttl = 60 * 60 * 24
	}

	return &WebPush{
		subscriber: cfg.Subscriber,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		ttl:        ttl,
	}, nil
}

// Send delivers an encrypted payload to one subscription. A 404 or 410
// response marks the subscription as gone; callers should drop it.
func (w *WebPush) Send(ctx context.Context, sub Subscription, payload []byte) (Result, error) {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s, &webpush.Options{
		Subscriber:      w.subscriber,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             w.ttl,
	})
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		res.Gone = true
		return res, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return res, errors.New("push service returned " + resp.Status)
	}

	return res, nil
}

// Close implements io.Closer for interface compatibility.
func (w *WebPush) Close() error {
	return nil
}
