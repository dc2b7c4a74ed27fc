package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/usecase"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/idempotency"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/router"
)

type fakeUC struct {
	runs []string
}

func (f *fakeUC) summary(name string) (entity.RunSummary, error) {
	f.runs = append(f.runs, name)
	return entity.RunSummary{
		Success:       true,
		ExecutionTime: "42ms",
		Result:        entity.RunResult{Sent: 1},
	}, nil
}

func (f *fakeUC) RunMatch(context.Context) (entity.RunSummary, error) {
	return f.summary("match")
}

func (f *fakeUC) RunHotAlert(context.Context) (entity.RunSummary, error) {
	return f.summary("hot_alert")
}

func (f *fakeUC) RunOpportunity(context.Context) (entity.RunSummary, error) {
	return f.summary("opportunity")
}

func (f *fakeUC) RunWeeklyDigest(context.Context) (entity.RunSummary, error) {
	return f.summary("weekly_digest")
}

func (f *fakeUC) RunExpiryReminder(context.Context) (entity.RunSummary, error) {
	return f.summary("expiry_reminder")
}

func (f *fakeUC) RunInactivityNudge(context.Context) (entity.RunSummary, error) {
	return f.summary("inactivity_nudge")
}

func (f *fakeUC) EndpointRegister(context.Context, usecase.EndpointRegisterInput) error {
	return nil
}

func (f *fakeUC) EndpointRemove(context.Context, string) error { return nil }

func (f *fakeUC) SendConfirmation(context.Context, int64) (entity.DispatchResult, error) {
	return entity.DispatchResult{Success: true}, nil
}

func (f *fakeUC) NotificationList(context.Context, int64, int32, int32) ([]entity.Notification, error) {
	return nil, nil
}

func (f *fakeUC) NotificationMarkRead(context.Context, int64, int64) error { return nil }

// fakeLocker refuses names marked held, mirroring a lock owned by another
// invocation.
type fakeLocker struct {
	held map[string]bool
}

func (l *fakeLocker) Acquire(_ context.Context, name string, _ time.Duration) error {
	if l.held[name] {
		return idempotency.ErrAlreadyRunning
	}
	return nil
}

func (l *fakeLocker) Release(context.Context, string) error { return nil }

func (l *fakeLocker) Exec(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error {
	if err := l.Acquire(ctx, name, ttl); err != nil {
		return err
	}
	return fn(ctx)
}

func newTestRouter(uc uc, locker idempotency.Locker) *router.Router {
	r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc, "secret", locker)
	return r
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(&fakeUC{}, &fakeLocker{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s, want liveness payload", rec.Body.String())
	}
}

func TestTriggerRunRequiresToken(t *testing.T) {
	r := newTestRouter(&fakeUC{}, &fakeLocker{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTriggerRunSummaryShape(t *testing.T) {
	uc := &fakeUC{}
	r := newTestRouter(uc, &fakeLocker{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"executionTime":"42ms"`) {
		t.Fatalf("body = %s, want camelCase executionTime field", body)
	}
	if strings.Contains(body, "execution_time") {
		t.Fatalf("body = %s, summary fields must not be snake_case", body)
	}
	if len(uc.runs) != 1 || uc.runs[0] != "match" {
		t.Fatalf("runs = %v, want one match run", uc.runs)
	}
}

func TestTriggerRunRejectedWhileLocked(t *testing.T) {
	uc := &fakeUC{}
	r := newTestRouter(uc, &fakeLocker{held: map[string]bool{"match": true}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 while the lock is held", rec.Code)
	}
	if len(uc.runs) != 0 {
		t.Fatalf("runs = %v, a held lock must prevent the run", uc.runs)
	}
}

func TestTriggerDetectorSharesCronLockName(t *testing.T) {
	uc := &fakeUC{}
	r := newTestRouter(uc, &fakeLocker{held: map[string]bool{"hot_alert": true}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/detectors/hot-alert", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429: the manual trigger must contend on the cron lock", rec.Code)
	}

	// A different detector is free to run.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/detectors/opportunity", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if len(uc.runs) != 1 || uc.runs[0] != "opportunity" {
		t.Fatalf("runs = %v, want only the opportunity run", uc.runs)
	}
}
