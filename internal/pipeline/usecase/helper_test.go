package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/clock"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/config"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/goerror"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/validator"
)

// testNow is the fixed wall-clock every test runs at: a Wednesday at noon
// UTC, far from quiet hours and midnight boundaries.
var testNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

const testConfigYAML = `
app:
  base_url: "https://example.com"
pipeline:
  scan_days_ahead: 30
  drain_limit: 10
  proactive_cooldown_hours: 4
`

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// fakeStore is an in-memory repoDB. Tests seed its fields directly and
// inspect them after the call under test.
type fakeStore struct {
	mu sync.Mutex

	subscriptions map[int64]entity.Subscription
	users         map[int64]entity.User
	preferences   map[int64]entity.Preferences
	endpoints     map[int64]entity.PushEndpoint
	queue         map[int64]entity.QueueItem
	ledger        []entity.NotifiedAppointment
	proactiveLogs []entity.ProactiveLog
	notifications []entity.Notification

	lastProactiveTouch map[int64]time.Time

	// errs injects a failure for the named method.
	errs map[string]error
	// panics makes the named method panic, for panic-isolation tests.
	panics map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subscriptions:      map[int64]entity.Subscription{},
		users:              map[int64]entity.User{},
		preferences:        map[int64]entity.Preferences{},
		endpoints:          map[int64]entity.PushEndpoint{},
		queue:              map[int64]entity.QueueItem{},
		lastProactiveTouch: map[int64]time.Time{},
		errs:               map[string]error{},
		panics:             map[string]bool{},
	}
}

func (f *fakeStore) fail(method string) error {
	if f.panics[method] {
		panic("injected panic in " + method)
	}
	return f.errs[method]
}

func (f *fakeStore) GetSubscription(_ context.Context, id int64) (*entity.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetSubscription"); err != nil {
		return nil, err
	}
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sub, nil
}

func (f *fakeStore) ListActiveSubscriptionsOverlapping(_ context.Context, minDate, maxDate string) ([]entity.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListActiveSubscriptionsOverlapping"); err != nil {
		return nil, err
	}
	var subs []entity.Subscription
	for _, sub := range f.subscriptions {
		if !sub.IsActive || sub.Status != entity.SubscriptionStatusActive {
			continue
		}
		start, end := sub.TargetDate, sub.TargetDate
		if sub.IsRange() {
			start, end = sub.RangeStart, sub.RangeEnd
		}
		if end < minDate || start > maxDate {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (f *fakeStore) ListRangeSubscriptionsEnding(_ context.Context, endDates []string) ([]entity.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListRangeSubscriptionsEnding"); err != nil {
		return nil, err
	}
	var subs []entity.Subscription
	for _, sub := range f.subscriptions {
		if !sub.IsActive || !sub.IsRange() {
			continue
		}
		for _, d := range endDates {
			if sub.RangeEnd == d {
				subs = append(subs, sub)
				break
			}
		}
	}
	return subs, nil
}

func (f *fakeStore) CompleteElapsedSubscriptions(_ context.Context, today string, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CompleteElapsedSubscriptions"); err != nil {
		return 0, err
	}
	var n int64
	for id, sub := range f.subscriptions {
		if sub.IsActive && sub.Expired(today) {
			sub.IsActive = false
			sub.Status = entity.SubscriptionStatusCompleted
			f.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) HasActiveSubscription(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("HasActiveSubscription"); err != nil {
		return false, err
	}
	for _, sub := range f.subscriptions {
		if sub.UserID == userID && sub.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetUser"); err != nil {
		return nil, err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &user, nil
}

func (f *fakeStore) ListActiveUsers(_ context.Context) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListActiveUsers"); err != nil {
		return nil, err
	}
	var users []entity.User
	for _, u := range f.users {
		if u.IsActive {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) ListInactiveUsers(_ context.Context, cutoff time.Time) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListInactiveUsers"); err != nil {
		return nil, err
	}
	var users []entity.User
	for _, u := range f.users {
		if u.IsActive && (u.LastSeenAt == nil || u.LastSeenAt.Before(cutoff)) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) GetPreferences(_ context.Context, userID int64) (*entity.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetPreferences"); err != nil {
		return nil, err
	}
	p, ok := f.preferences[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) TouchLastProactiveAt(_ context.Context, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("TouchLastProactiveAt"); err != nil {
		return err
	}
	f.lastProactiveTouch[userID] = at
	return nil
}

func (f *fakeStore) ListActiveEndpoints(_ context.Context, userID int64) ([]entity.PushEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListActiveEndpoints"); err != nil {
		return nil, err
	}
	var eps []entity.PushEndpoint
	for _, ep := range f.endpoints {
		if ep.IsActive && ep.UserID != nil && *ep.UserID == userID {
			eps = append(eps, ep)
		}
	}
	return eps, nil
}

func (f *fakeStore) UpsertEndpoint(_ context.Context, ep entity.PushEndpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpsertEndpoint"); err != nil {
		return err
	}
	for id, existing := range f.endpoints {
		if existing.Endpoint == ep.Endpoint {
			ep.ID = id
			break
		}
	}
	ep.IsActive = true
	ep.ConsecutiveFailures = 0
	f.endpoints[ep.ID] = ep
	return nil
}

func (f *fakeStore) DeleteEndpointByURL(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteEndpointByURL"); err != nil {
		return err
	}
	for id, ep := range f.endpoints {
		if ep.Endpoint == endpoint {
			delete(f.endpoints, id)
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (f *fakeStore) RecordEndpointSuccess(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RecordEndpointSuccess"); err != nil {
		return err
	}
	ep := f.endpoints[id]
	ep.ConsecutiveFailures = 0
	ep.LastDeliveryStatus = entity.DeliveryStatusSuccess
	ep.LastFailureReason = nil
	ep.LastUsedAt = &at
	f.endpoints[id] = ep
	return nil
}

func (f *fakeStore) RecordEndpointFailure(_ context.Context, id int64, failures int32, reason string, deactivate bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RecordEndpointFailure"); err != nil {
		return err
	}
	ep := f.endpoints[id]
	ep.ConsecutiveFailures = failures
	ep.LastDeliveryStatus = entity.DeliveryStatusFailed
	ep.LastFailureReason = &reason
	ep.IsActive = !deactivate
	ep.LastUsedAt = &at
	f.endpoints[id] = ep
	return nil
}

func (f *fakeStore) CreateQueueItem(_ context.Context, item entity.QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateQueueItem"); err != nil {
		return err
	}
	f.queue[item.ID] = item
	return nil
}

func (f *fakeStore) ListPendingQueueItems(_ context.Context, limit int32) ([]entity.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListPendingQueueItems"); err != nil {
		return nil, err
	}
	var items []entity.QueueItem
	for _, item := range f.queue {
		if item.Status == entity.QueueStatusPending {
			items = append(items, item)
		}
		if int32(len(items)) >= limit {
			break
		}
	}
	return items, nil
}

func (f *fakeStore) UpdateQueueItemStatus(_ context.Context, id int64, status entity.QueueStatus, errMsg *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateQueueItemStatus"); err != nil {
		return err
	}
	item := f.queue[id]
	item.ID = id
	item.Status = status
	item.ErrorMessage = errMsg
	item.UpdatedAt = at
	f.queue[id] = item
	return nil
}

func (f *fakeStore) HasPendingQueueItem(_ context.Context, subscriptionID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("HasPendingQueueItem"); err != nil {
		return false, err
	}
	for _, item := range f.queue {
		if item.SubscriptionID == subscriptionID && item.Status == entity.QueueStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertNotifiedIfAbsent(_ context.Context, row entity.NotifiedAppointment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertNotifiedIfAbsent"); err != nil {
		return false, err
	}
	key := entity.TimesKey(row.Times)
	for _, existing := range f.ledger {
		if existing.SubscriptionID == row.SubscriptionID &&
			existing.AppointmentDate == row.AppointmentDate &&
			entity.TimesKey(existing.Times) == key {
			return true, nil
		}
	}
	f.ledger = append(f.ledger, row)
	return false, nil
}

func (f *fakeStore) ListNotifiedTimes(_ context.Context, subscriptionID int64, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListNotifiedTimes"); err != nil {
		return nil, err
	}
	var all []string
	for _, row := range f.ledger {
		if row.SubscriptionID == subscriptionID && row.AppointmentDate == date {
			all = append(all, row.Times...)
		}
	}
	return all, nil
}

func (f *fakeStore) HasRecentNotified(_ context.Context, subscriptionID int64, date string, times []string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("HasRecentNotified"); err != nil {
		return false, err
	}
	key := entity.TimesKey(times)
	for _, row := range f.ledger {
		if row.SubscriptionID == subscriptionID && row.AppointmentDate == date &&
			entity.TimesKey(row.Times) == key && !row.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ReserveProactiveLog(_ context.Context, log entity.ProactiveLog, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ReserveProactiveLog"); err != nil {
		return false, err
	}
	for _, existing := range f.proactiveLogs {
		if existing.UserID == log.UserID && existing.DedupKey == log.DedupKey && !existing.SentAt.Before(since) {
			return false, nil
		}
	}
	f.proactiveLogs = append(f.proactiveLogs, log)
	return true, nil
}

func (f *fakeStore) SetProactiveLogOutcome(_ context.Context, id int64, pushSent, emailSent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetProactiveLogOutcome"); err != nil {
		return err
	}
	for i := range f.proactiveLogs {
		if f.proactiveLogs[i].ID == id {
			f.proactiveLogs[i].PushSent = pushSent
			f.proactiveLogs[i].EmailSent = emailSent
		}
	}
	return nil
}

func (f *fakeStore) DeleteProactiveLog(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteProactiveLog"); err != nil {
		return err
	}
	kept := f.proactiveLogs[:0]
	for _, log := range f.proactiveLogs {
		if log.ID != id {
			kept = append(kept, log)
		}
	}
	f.proactiveLogs = kept
	return nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateNotification"); err != nil {
		return err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeStore) ListNotifications(_ context.Context, userID int64, limit, offset int32) ([]entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListNotifications"); err != nil {
		return nil, err
	}
	var out []entity.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if int(offset) < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, userID, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MarkNotificationRead"); err != nil {
		return err
	}
	for i, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			if n.ReadAt == nil {
				f.notifications[i].ReadAt = &at
			}
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (f *fakeStore) CountNotificationsSince(_ context.Context, userID int64, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CountNotificationsSince"); err != nil {
		return 0, err
	}
	var n int64
	for _, notif := range f.notifications {
		if notif.UserID == userID && !notif.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) LastNotificationAt(_ context.Context, userID int64, category entity.Category) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("LastNotificationAt"); err != nil {
		return nil, err
	}
	var last *time.Time
	for _, n := range f.notifications {
		n := n
		if n.UserID == userID && n.Category == category && (last == nil || n.CreatedAt.After(*last)) {
			last = &n.CreatedAt
		}
	}
	return last, nil
}

type fakeSource struct {
	snapshot []entity.DaySlot
	err      error
	gotDates []string
}

func (f *fakeSource) Scan(_ context.Context, dates []string) ([]entity.DaySlot, error) {
	f.gotDates = dates
	return f.snapshot, f.err
}

type fakeMail struct {
	mu   sync.Mutex
	sent []entity.EmailMessage
	to   []string
	err  error
}

func (f *fakeMail) Send(_ context.Context, to string, msg entity.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	f.to = append(f.to, to)
	return nil
}

// fakePush returns a per-endpoint outcome; unlisted endpoints succeed.
type fakePush struct {
	mu       sync.Mutex
	outcomes map[string]entity.PushSendOutcome
	errs     map[string]error
	sent     []string
}

func (f *fakePush) Send(_ context.Context, ep entity.PushEndpoint, _ entity.PushPayload) (entity.PushSendOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ep.Endpoint)
	if err, ok := f.errs[ep.Endpoint]; ok {
		return f.outcomes[ep.Endpoint], err
	}
	if out, ok := f.outcomes[ep.Endpoint]; ok {
		return out, nil
	}
	return entity.PushSendOutcome{StatusCode: 201}, nil
}

type fixture struct {
	uc     *Usecase
	store  *fakeStore
	source *fakeSource
	mail   *fakeMail
	push   *fakePush
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	t.Cleanup(func() { cfg.Close() })

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	f := &fixture{
		store:  newFakeStore(),
		source: &fakeSource{},
		mail:   &fakeMail{},
		push:   &fakePush{outcomes: map[string]entity.PushSendOutcome{}, errs: map[string]error{}},
	}

	f.uc = NewPipeline(Dependency{
		RepoDB:     f.store,
		Source:     f.source,
		RepoMail:   f.mail,
		RepoPush:   f.push,
		Config:     cfg,
		UID:        &seqID{},
		Clock:      clock.NewFixed(testNow),
		Validator:  v10,
		Instrument: instrument.NewNoop(),
	})

	return f
}

func (f *fixture) seedUser(id int64) entity.User {
	user := entity.User{
		ID:       id,
		Email:    "user@example.com",
		FullName: "Test User",
		IsActive: true,
	}
	f.store.users[id] = user
	return user
}

func (f *fixture) seedEndpoint(id, userID int64, url string) entity.PushEndpoint {
	ep := entity.PushEndpoint{
		ID:       id,
		UserID:   &userID,
		Endpoint: url,
		P256dh:   "p256",
		Auth:     "auth",
		IsActive: true,
	}
	f.store.endpoints[id] = ep
	return ep
}

func strPtr(s string) *string { return &s }
