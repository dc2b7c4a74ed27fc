package usecase

import (
	"context"
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/clock"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/config"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/uid"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetSubscription(ctx context.Context, id int64) (*entity.Subscription, error)
	ListActiveSubscriptionsOverlapping(ctx context.Context, minDate, maxDate string) ([]entity.Subscription, error)
	ListRangeSubscriptionsEnding(ctx context.Context, endDates []string) ([]entity.Subscription, error)
	CompleteElapsedSubscriptions(ctx context.Context, today string, now time.Time) (int64, error)
	HasActiveSubscription(ctx context.Context, userID int64) (bool, error)

	GetUser(ctx context.Context, id int64) (*entity.User, error)
	ListActiveUsers(ctx context.Context) ([]entity.User, error)
	ListInactiveUsers(ctx context.Context, cutoff time.Time) ([]entity.User, error)

	GetPreferences(ctx context.Context, userID int64) (*entity.Preferences, error)
	TouchLastProactiveAt(ctx context.Context, userID int64, at time.Time) error

	ListActiveEndpoints(ctx context.Context, userID int64) ([]entity.PushEndpoint, error)
	UpsertEndpoint(ctx context.Context, ep entity.PushEndpoint) error
	DeleteEndpointByURL(ctx context.Context, endpoint string) error
	RecordEndpointSuccess(ctx context.Context, id int64, at time.Time) error
	RecordEndpointFailure(ctx context.Context, id int64, failures int32, reason string, deactivate bool, at time.Time) error

	CreateQueueItem(ctx context.Context, item entity.QueueItem) error
	ListPendingQueueItems(ctx context.Context, limit int32) ([]entity.QueueItem, error)
	UpdateQueueItemStatus(ctx context.Context, id int64, status entity.QueueStatus, errMsg *string, at time.Time) error
	HasPendingQueueItem(ctx context.Context, subscriptionID int64) (bool, error)

	InsertNotifiedIfAbsent(ctx context.Context, row entity.NotifiedAppointment) (bool, error)
	ListNotifiedTimes(ctx context.Context, subscriptionID int64, date string) ([]string, error)
	HasRecentNotified(ctx context.Context, subscriptionID int64, date string, times []string, since time.Time) (bool, error)

	ReserveProactiveLog(ctx context.Context, log entity.ProactiveLog, since time.Time) (bool, error)
	SetProactiveLogOutcome(ctx context.Context, id int64, pushSent, emailSent bool) error
	DeleteProactiveLog(ctx context.Context, id int64) error

	CreateNotification(ctx context.Context, n entity.Notification) error
	ListNotifications(ctx context.Context, userID int64, limit, offset int32) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64, at time.Time) error
	CountNotificationsSince(ctx context.Context, userID int64, since time.Time) (int64, error)
	LastNotificationAt(ctx context.Context, userID int64, category entity.Category) (*time.Time, error)
}

type availabilitySource interface {
	Scan(ctx context.Context, dates []string) ([]entity.DaySlot, error)
}

type emailSender interface {
	Send(ctx context.Context, to string, msg entity.EmailMessage) error
}

type pushSender interface {
	Send(ctx context.Context, ep entity.PushEndpoint, payload entity.PushPayload) (entity.PushSendOutcome, error)
}

type Usecase struct {
	repoDB    repoDB
	source    availabilitySource
	repoMail  emailSender
	repoPush  pushSender
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
	loc       *time.Location

	scanDaysAhead int
	drainLimit    int32
	baseURL       string
}

type Dependency struct {
	RepoDB     repoDB
	Source     availabilitySource
	RepoMail   emailSender
	RepoPush   pushSender
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewPipeline(dep Dependency) *Usecase {
	loc := time.UTC
	if tz := dep.Config.GetString("app.timezone"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	scanDays := int(dep.Config.GetInt32("pipeline.scan_days_ahead"))
	if scanDays <= 0 {
		scanDays = 30
	}

	drainLimit := dep.Config.GetInt32("pipeline.drain_limit")
	if drainLimit <= 0 {
		drainLimit = 10
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		source:        dep.Source,
		repoMail:      dep.RepoMail,
		repoPush:      dep.RepoPush,
		cfg:           dep.Config,
		uid:           dep.UID,
		clock:         dep.Clock,
		validator:     dep.Validator,
		ins:           dep.Instrument,
		loc:           loc,
		scanDaysAhead: scanDays,
		drainLimit:    drainLimit,
		baseURL:       dep.Config.GetString("app.base_url"),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("pipeline.usecase").Start(ctx, name)
}

// now returns the current time in the pipeline's local timezone; quiet
// hours and the daily cap are defined against it.
func (s *Usecase) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *Usecase) today() string {
	return s.now().Format(entity.DateLayout)
}

func (s *Usecase) dateOffset(days int) string {
	return s.now().AddDate(0, 0, days).Format(entity.DateLayout)
}

// datesUpTo lists today through days out, inclusive.
func (s *Usecase) datesUpTo(days int) []string {
	dates := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		dates = append(dates, s.dateOffset(i))
	}
	return dates
}

// scanDates is the full window the availability source is asked about on a
// matcher run.
func (s *Usecase) scanDates() []string {
	return s.datesUpTo(s.scanDaysAhead)
}

func (s *Usecase) summarize(started time.Time, result entity.RunResult) entity.RunSummary {
	return entity.RunSummary{
		Success:       true,
		ExecutionTime: s.clock.Now().Sub(started).Round(time.Millisecond).String(),
		Result:        result,
	}
}
