package usecase

import (
	"context"
	"testing"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

func TestEndpointRegister(t *testing.T) {
	f := newFixture(t)

	err := f.uc.EndpointRegister(context.Background(), EndpointRegisterInput{
		Endpoint: "https://push.example/new",
		P256dh:   "p256",
		Auth:     "auth",
	})
	if err != nil {
		t.Fatalf("EndpointRegister: %v", err)
	}

	if len(f.store.endpoints) != 1 {
		t.Fatalf("endpoints = %d, want 1", len(f.store.endpoints))
	}
	for _, ep := range f.store.endpoints {
		if ep.DeviceType != "desktop" {
			t.Fatalf("device type = %q, want desktop default", ep.DeviceType)
		}
		if !ep.IsActive {
			t.Fatal("registered endpoint must be active")
		}
	}
}

func TestEndpointRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   EndpointRegisterInput
	}{
		{name: "missing endpoint", in: EndpointRegisterInput{P256dh: "p", Auth: "a"}},
		{name: "not a url", in: EndpointRegisterInput{Endpoint: "not a url", P256dh: "p", Auth: "a"}},
		{name: "missing keys", in: EndpointRegisterInput{Endpoint: "https://push.example/x"}},
		{name: "bad device type", in: EndpointRegisterInput{Endpoint: "https://push.example/x", P256dh: "p", Auth: "a", DeviceType: "toaster"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.uc.EndpointRegister(context.Background(), tc.in); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
	if len(f.store.endpoints) != 0 {
		t.Fatalf("endpoints = %d after rejected inputs, want 0", len(f.store.endpoints))
	}
}

func TestEndpointRegisterReactivatesExisting(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEndpoint(1, 1, "https://push.example/a")
	ep.IsActive = false
	ep.ConsecutiveFailures = 5
	f.store.endpoints[1] = ep

	userID := int64(1)
	err := f.uc.EndpointRegister(context.Background(), EndpointRegisterInput{
		UserID:   &userID,
		Endpoint: "https://push.example/a",
		P256dh:   "fresh-p256",
		Auth:     "fresh-auth",
	})
	if err != nil {
		t.Fatalf("EndpointRegister: %v", err)
	}

	if len(f.store.endpoints) != 1 {
		t.Fatalf("endpoints = %d, want the same row reused", len(f.store.endpoints))
	}
	got := f.store.endpoints[1]
	if !got.IsActive || got.ConsecutiveFailures != 0 {
		t.Fatalf("endpoint = %+v, want reactivated with reset counters", got)
	}
	if got.P256dh != "fresh-p256" {
		t.Fatalf("p256dh = %q, want re-keyed value", got.P256dh)
	}
}

func TestEndpointRemove(t *testing.T) {
	f := newFixture(t)
	f.seedEndpoint(1, 1, "https://push.example/a")

	if err := f.uc.EndpointRemove(context.Background(), "https://push.example/a"); err != nil {
		t.Fatalf("EndpointRemove: %v", err)
	}
	if len(f.store.endpoints) != 0 {
		t.Fatal("endpoint must be deleted")
	}

	if err := f.uc.EndpointRemove(context.Background(), "https://push.example/a"); err == nil {
		t.Fatal("removing a missing endpoint must fail")
	}
	if err := f.uc.EndpointRemove(context.Background(), "  "); err == nil {
		t.Fatal("blank endpoint must be rejected")
	}
}

func TestNotificationListClampsPaging(t *testing.T) {
	f := newFixture(t)
	for i := int64(1); i <= 30; i++ {
		f.store.notifications = append(f.store.notifications, entity.Notification{
			ID: i, UserID: 1, Title: "t", CreatedAt: testNow,
		})
	}

	items, err := f.uc.NotificationList(context.Background(), 1, 0, -5)
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("items = %d, want the default page size 20", len(items))
	}

	items, err = f.uc.NotificationList(context.Background(), 1, 500, 0)
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("items = %d, want oversized limit clamped to 20", len(items))
	}
}

func TestNotificationMarkRead(t *testing.T) {
	f := newFixture(t)
	f.store.notifications = []entity.Notification{{ID: 5, UserID: 1, CreatedAt: testNow}}

	if err := f.uc.NotificationMarkRead(context.Background(), 1, 5); err != nil {
		t.Fatalf("NotificationMarkRead: %v", err)
	}
	if f.store.notifications[0].ReadAt == nil {
		t.Fatal("read_at must be stamped")
	}

	// Another user's notification is invisible.
	if err := f.uc.NotificationMarkRead(context.Background(), 2, 5); err == nil {
		t.Fatal("marking another user's notification must fail")
	}
}
