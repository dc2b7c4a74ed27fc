package push

import (
	"context"
	"io"
)

// Subscription identifies a browser push endpoint with its encryption keys.
type Subscription struct {
	// Endpoint is the push service URL issued by the browser.
	Endpoint string
	// P256dh is the client public key for payload encryption.
	P256dh string
	// Auth is the client authentication secret.
	Auth string
}

// Result reports the outcome of a single push delivery attempt.
type Result struct {
	// StatusCode is the HTTP status returned by the push service, or zero
	// when the request never reached it.
	StatusCode int
	// Gone is true when the push service reports the subscription no longer
	// exists (HTTP 404 or 410).
	Gone bool
}

// Sender abstracts a Web Push delivery provider.
type Sender interface {
	io.Closer
	// Send delivers an encrypted payload to the given subscription.
	Send(ctx context.Context, sub Subscription, payload []byte) (Result, error)
}
