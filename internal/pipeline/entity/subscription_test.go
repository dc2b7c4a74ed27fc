package entity

import "testing"

func TestSubscriptionCovers(t *testing.T) {
	single := Subscription{TargetDate: "2026-03-05"}
	ranged := Subscription{RangeStart: "2026-03-05", RangeEnd: "2026-03-10"}

	tests := []struct {
		name string
		sub  Subscription
		date string
		want bool
	}{
		{name: "single exact", sub: single, date: "2026-03-05", want: true},
		{name: "single other day", sub: single, date: "2026-03-06", want: false},
		{name: "range start inclusive", sub: ranged, date: "2026-03-05", want: true},
		{name: "range end inclusive", sub: ranged, date: "2026-03-10", want: true},
		{name: "range inside", sub: ranged, date: "2026-03-07", want: true},
		{name: "range before", sub: ranged, date: "2026-03-04", want: false},
		{name: "range after", sub: ranged, date: "2026-03-11", want: false},
		{name: "empty date", sub: ranged, date: "", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sub.Covers(tc.date); got != tc.want {
				t.Fatalf("Covers(%q) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestSubscriptionExpired(t *testing.T) {
	if !(Subscription{TargetDate: "2026-03-04"}).Expired("2026-03-05") {
		t.Fatal("single-date subscription past its date must be expired")
	}
	if (Subscription{TargetDate: "2026-03-05"}).Expired("2026-03-05") {
		t.Fatal("subscription ending today is not yet expired")
	}
	if (Subscription{RangeStart: "2026-03-01", RangeEnd: "2026-03-09"}).Expired("2026-03-05") {
		t.Fatal("range still open must not be expired")
	}
}

func TestDedupKeys(t *testing.T) {
	if got := DedupKeyDates(CategoryHotAlert, []string{"2026-03-06", "2026-03-05"}); got != "hot_alert:2026-03-05,2026-03-06" {
		t.Fatalf("DedupKeyDates = %q", got)
	}
	if got := DedupKeyDaily(CategoryOpportunity, 7); got != "opportunity:user:7" {
		t.Fatalf("DedupKeyDaily = %q", got)
	}
	if got := DedupKeySubscription(CategoryExpiryReminder, 10, "2026-03-05"); got != "expiry_reminder:sub:10:2026-03-05" {
		t.Fatalf("DedupKeySubscription = %q", got)
	}
}
