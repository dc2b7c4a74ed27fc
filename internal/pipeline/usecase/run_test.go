package usecase

import (
	"context"
	"testing"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

func TestRunMatchFullPass(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	f.store.subscriptions[10] = activeRangeSub(10, 1, "2026-03-04", "2026-03-10")
	f.source.snapshot = []entity.DaySlot{
		{Date: "2026-03-05", DayName: "Thursday", Available: true, Times: []string{"09:00"}, BookingURL: "https://book.example/x"},
	}

	summary, err := f.uc.RunMatch(context.Background())
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if !summary.Success {
		t.Fatal("summary.Success must be true")
	}
	if summary.Result.Sent != 1 {
		t.Fatalf("result = %+v, want 1 sent", summary.Result)
	}
	if summary.ExecutionTime == "" {
		t.Fatal("execution time must be reported")
	}

	// The scan request covers today through the configured horizon.
	if len(f.source.gotDates) != 31 {
		t.Fatalf("scan window = %d dates, want 31 (today + 30)", len(f.source.gotDates))
	}
	if f.source.gotDates[0] != "2026-03-04" {
		t.Fatalf("scan starts at %q, want today", f.source.gotDates[0])
	}

	if len(f.store.ledger) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(f.store.ledger))
	}
}

func TestRunMatchSecondRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	f.store.subscriptions[10] = activeSub(10, 1, "2026-03-05")
	f.source.snapshot = []entity.DaySlot{
		{Date: "2026-03-05", Available: true, Times: []string{"09:00", "10:00"}},
	}

	first, err := f.uc.RunMatch(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Result.Sent != 1 {
		t.Fatalf("first run result = %+v, want 1 sent", first.Result)
	}

	// Unchanged availability: the matcher finds nothing new, the queue
	// stays empty, the user hears nothing.
	second, err := f.uc.RunMatch(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Result.Sent != 0 {
		t.Fatalf("second run result = %+v, want 0 sent", second.Result)
	}
	if len(f.push.sent) != 1 {
		t.Fatalf("push sends across both runs = %d, want 1", len(f.push.sent))
	}
}

func TestRunMatchNewTimeTriggersDelta(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	f.store.subscriptions[10] = activeSub(10, 1, "2026-03-05")
	f.source.snapshot = []entity.DaySlot{
		{Date: "2026-03-05", Available: true, Times: []string{"09:00"}},
	}

	if _, err := f.uc.RunMatch(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A new time appears; only the delta is notified.
	f.source.snapshot[0].Times = []string{"09:00", "11:00"}

	summary, err := f.uc.RunMatch(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Result.Sent != 1 {
		t.Fatalf("second run result = %+v, want 1 sent for the new time", summary.Result)
	}
	if len(f.store.ledger) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(f.store.ledger))
	}
	if got := entity.TimesKey(f.store.ledger[1].Times); got != "11:00" {
		t.Fatalf("second ledger row times = %q, want only the new time", got)
	}
}

func TestRunMatchSweepsElapsedSubscriptions(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.store.subscriptions[10] = activeSub(10, 1, "2026-03-01") // in the past

	if _, err := f.uc.RunMatch(context.Background()); err != nil {
		t.Fatalf("RunMatch: %v", err)
	}

	sub := f.store.subscriptions[10]
	if sub.IsActive || sub.Status != entity.SubscriptionStatusCompleted {
		t.Fatalf("elapsed subscription = %+v, want completed and inactive", sub)
	}
}
