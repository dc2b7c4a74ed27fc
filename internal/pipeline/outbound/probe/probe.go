// Package probe is the HTTP client for the availability source: the
// external scanner that reports which dates currently have open slots.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Config configures the availability source client.
type Config struct {
	// BaseURL is the scanner service root, without trailing slash.
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Timeout bounds one scan request including retries.
	Timeout time.Duration
	// MaxRetries bounds retry attempts on transient failures.
	MaxRetries uint64
}

type Client struct {
	cfg  Config
	http *http.Client
	ins  instrument.Instrumentation
}

func New(cfg Config, ins instrument.Instrumentation) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		ins:  ins,
	}
}

type daySlotResponse struct {
	Date       string   `json:"date"`
	DayName    string   `json:"dayName"`
	Available  bool     `json:"available"`
	Times      []string `json:"times"`
	BookingURL string   `json:"bookingUrl"`
}

// Scan asks the availability source for the given dates and returns one
// DaySlot per date. Transient HTTP failures are retried with backoff.
func (c *Client) Scan(ctx context.Context, dates []string) (_ []entity.DaySlot, err error) {
	ctx, span := c.ins.Tracer("pipeline.outbound.probe").Start(ctx, "Scan")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("probe.dates", len(dates)))

	u, err := url.Parse(c.cfg.BaseURL + "/scan")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("dates", strings.Join(dates, ","))
	u.RawQuery = q.Encode()

	var days []entity.DaySlot

	b := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		req, rErr := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if rErr != nil {
			return rErr
		}
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, rErr := c.http.Do(req)
		if rErr != nil {
			return retry.RetryableError(rErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("availability source returned %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("availability source returned %s", resp.Status)
		}

		var body []daySlotResponse
		if rErr := json.NewDecoder(resp.Body).Decode(&body); rErr != nil {
			return fmt.Errorf("decode availability response: %w", rErr)
		}

		days = make([]entity.DaySlot, 0, len(body))
		for _, d := range body {
			days = append(days, entity.DaySlot{
				Date:       d.Date,
				DayName:    d.DayName,
				Available:  d.Available,
				Times:      d.Times,
				BookingURL: d.BookingURL,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return days, nil
}
