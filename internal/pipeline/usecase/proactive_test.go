package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

func seedAvailability(f *fixture, dates ...string) {
	for _, d := range dates {
		f.source.snapshot = append(f.source.snapshot, entity.DaySlot{
			Date:      d,
			DayName:   "Wednesday",
			Available: true,
			Times:     []string{"09:00", "09:30"},
		})
	}
}

func TestRunHotAlertDedupsSameDay(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	seedAvailability(f, "2026-03-05")

	summary, err := f.uc.RunHotAlert(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if summary.Result.Sent != 1 {
		t.Fatalf("first run result = %+v, want 1 sent", summary.Result)
	}
	if len(f.store.proactiveLogs) != 1 {
		t.Fatalf("proactive logs = %d, want 1", len(f.store.proactiveLogs))
	}

	// Second run inside the 24h window: same soonest date, same dedup
	// key, no second delivery. The in-app record is cleared so the dedup
	// reservation, not the category cooldown, is what blocks.
	f.store.notifications = nil
	summary, err = f.uc.RunHotAlert(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Result.Sent != 0 || summary.Result.Skipped != 1 {
		t.Fatalf("second run result = %+v, want 0 sent / 1 skipped", summary.Result)
	}
	if len(f.store.proactiveLogs) != 1 {
		t.Fatalf("proactive logs = %d after rerun, want still 1", len(f.store.proactiveLogs))
	}
}

func TestRunHotAlertNothingAvailable(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)

	summary, err := f.uc.RunHotAlert(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Result != (entity.RunResult{}) {
		t.Fatalf("result = %+v, want all zero", summary.Result)
	}
}

func TestRunOpportunitySkipsSubscribedUsers(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	subscribed := entity.User{ID: 2, Email: "two@example.com", IsActive: true}
	f.store.users[2] = subscribed
	f.seedEndpoint(2, 2, "https://push.example/b")
	f.store.subscriptions[10] = activeSub(10, 2, "2026-03-10")
	seedAvailability(f, "2026-03-06")

	summary, err := f.uc.RunOpportunity(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Result.Sent != 1 || summary.Result.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 sent (unsubscribed) / 1 skipped (subscribed)", summary.Result)
	}

	if f.store.proactiveLogs[0].UserID != 1 {
		t.Fatalf("delivered to user %d, want the unsubscribed user 1", f.store.proactiveLogs[0].UserID)
	}
}

func TestRunExpiryReminderOncePerEndDate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	f.store.subscriptions[10] = activeRangeSub(10, 1, "2026-02-20", "2026-03-05") // ends tomorrow

	summary, err := f.uc.RunExpiryReminder(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if summary.Result.Sent != 1 {
		t.Fatalf("first run result = %+v, want 1 sent", summary.Result)
	}

	// The reminder is once-ever per (subscription, end date), even past
	// any rolling window. Clearing the in-app record and backdating the
	// log row proves the zero-window reservation is what blocks.
	f.store.notifications = nil
	f.store.proactiveLogs[0].SentAt = testNow.Add(-30 * 24 * time.Hour)
	summary, err = f.uc.RunExpiryReminder(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Result.Sent != 0 || summary.Result.Skipped != 1 {
		t.Fatalf("second run result = %+v, want 0 sent / 1 skipped", summary.Result)
	}
}

func TestSendProactiveRecordsEverything(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")

	push, email := f.uc.buildHotAlert(entity.DaySlot{Date: "2026-03-05", DayName: "Thursday", Times: []string{"09:00"}})
	sent, err := f.uc.sendProactive(context.Background(), proactiveDelivery{
		user:         user,
		category:     entity.CategoryHotAlert,
		dedupKey:     "hot_alert:2026-03-05",
		relatedDates: []string{"2026-03-05"},
		window:       24 * time.Hour,
		push:         push,
		email:        email,
	})
	if err != nil {
		t.Fatalf("sendProactive: %v", err)
	}
	if !sent {
		t.Fatal("expected a delivery")
	}

	if len(f.store.proactiveLogs) != 1 {
		t.Fatalf("proactive logs = %d, want 1", len(f.store.proactiveLogs))
	}
	log := f.store.proactiveLogs[0]
	if !log.PushSent || !log.InAppSent {
		t.Fatalf("log = %+v, want push and in-app marked sent", log)
	}
	if len(f.store.notifications) != 1 {
		t.Fatalf("in-app notifications = %d, want 1", len(f.store.notifications))
	}
	if _, ok := f.store.lastProactiveTouch[1]; !ok {
		t.Fatal("last proactive timestamp must be touched")
	}
}

func TestSendProactiveReleasesReservationOnFailure(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(1)
	// No push endpoints, so the push-only dispatch fails on every channel.

	push, email := f.uc.buildHotAlert(entity.DaySlot{Date: "2026-03-05", DayName: "Thursday", Times: []string{"09:00"}})
	sent, err := f.uc.sendProactive(context.Background(), proactiveDelivery{
		user:         user,
		category:     entity.CategoryHotAlert,
		dedupKey:     "hot_alert:2026-03-05",
		relatedDates: []string{"2026-03-05"},
		window:       24 * time.Hour,
		push:         push,
		email:        email,
	})
	if err != nil {
		t.Fatalf("sendProactive: %v", err)
	}
	if sent {
		t.Fatal("no channel delivered, expected no send")
	}
	if len(f.store.proactiveLogs) != 0 {
		t.Fatalf("proactive logs = %d, want reservation released on failure", len(f.store.proactiveLogs))
	}

	// With a device registered the same key must go through afterwards.
	f.seedEndpoint(1, 1, "https://push.example/a")
	sent, err = f.uc.sendProactive(context.Background(), proactiveDelivery{
		user:         user,
		category:     entity.CategoryHotAlert,
		dedupKey:     "hot_alert:2026-03-05",
		relatedDates: []string{"2026-03-05"},
		window:       24 * time.Hour,
		push:         push,
		email:        email,
	})
	if err != nil {
		t.Fatalf("retry sendProactive: %v", err)
	}
	if !sent {
		t.Fatal("released key must be deliverable on the next attempt")
	}
}

func TestRunInactivityNudgeIncludesNeverSeenUsers(t *testing.T) {
	f := newFixture(t)
	// seedUser leaves LastSeenAt nil: a user who never recorded any app
	// activity still counts as inactive.
	f.seedUser(1)
	f.seedEndpoint(1, 1, "https://push.example/a")
	seedAvailability(f, "2026-03-08")

	summary, err := f.uc.RunInactivityNudge(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Result.Sent != 1 {
		t.Fatalf("result = %+v, want 1 sent to the never-seen user", summary.Result)
	}

	// A recently seen user stays out of the audience.
	recent := testNow.Add(-time.Hour)
	f.store.users[2] = entity.User{ID: 2, Email: "two@example.com", IsActive: true, LastSeenAt: &recent}
	f.seedEndpoint(2, 2, "https://push.example/b")
	f.store.notifications = nil

	summary, err = f.uc.RunInactivityNudge(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Result.Sent != 0 {
		t.Fatalf("result = %+v, want 0 sent (user 1 deduped, user 2 active)", summary.Result)
	}
}

func TestPreferredMethodFallsBackToPush(t *testing.T) {
	f := newFixture(t)

	if got := f.uc.preferredMethod(context.Background(), 1); got != entity.MethodPush {
		t.Fatalf("preferredMethod without prefs = %v, want push", got)
	}

	prefs := entity.DefaultPreferences(2)
	prefs.DefaultMethod = entity.MethodEmail
	f.store.preferences[2] = prefs
	if got := f.uc.preferredMethod(context.Background(), 2); got != entity.MethodEmail {
		t.Fatalf("preferredMethod = %v, want email", got)
	}
}
