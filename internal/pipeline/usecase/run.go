package usecase

import (
	"context"
	"log/slog"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

// RunMatch is the main pipeline invocation: it sweeps elapsed
// subscriptions, scans availability, matches it against subscriptions into
// the queue, then drains the queue. Durability lives in the store, so a
// run cut short simply leaves pending items for the next one.
func (s *Usecase) RunMatch(ctx context.Context) (entity.RunSummary, error) {
	ctx, span := s.startSpan(ctx, "RunMatch")
	defer span.End()

	started := s.clock.Now()

	completed, err := s.repoDB.CompleteElapsedSubscriptions(ctx, s.today(), s.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep elapsed subscriptions", "error", err)
	} else if completed > 0 {
		slog.InfoContext(ctx, "completed elapsed subscriptions", "count", completed)
	}

	snapshot, err := s.source.Scan(ctx, s.scanDates())
	if err != nil {
		return entity.RunSummary{}, err
	}

	created, err := s.matchSnapshot(ctx, snapshot)
	if err != nil {
		return entity.RunSummary{}, err
	}

	bookingURLs := make(map[string]string, len(snapshot))
	for _, day := range snapshot {
		if day.BookingURL != "" {
			bookingURLs[day.Date] = day.BookingURL
		}
	}

	result, err := s.drainQueue(ctx, bookingURLs)
	if err != nil {
		return entity.RunSummary{}, err
	}

	slog.InfoContext(ctx, "pipeline run finished",
		"queued", created, "sent", result.Sent, "skipped", result.Skipped,
		"deferred", result.Deferred, "failed", result.Failed)

	return s.summarize(started, result), nil
}
