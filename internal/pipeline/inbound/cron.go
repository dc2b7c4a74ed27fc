package inbound

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/config"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/idempotency"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/uid"
)

const runLockTTL = 10 * time.Minute

// Scheduler runs the pipeline and the proactive detectors on a cron cadence.
// Every job takes a Redis run lock first so replicas never run the same job
// twice at once.
type Scheduler struct {
	cron   *cron.Cron
	uc     ucRunner
	locker idempotency.Locker
	uuid   uid.StringID
}

type schedulerJob struct {
	name string
	spec string
	run  func(context.Context) (entity.RunSummary, error)
}

// RegisterCron wires all scheduled jobs from configuration and returns the
// scheduler, not yet started.
func RegisterCron(cfg config.Config, uc ucRunner, locker idempotency.Locker, uuid uid.StringID) (*Scheduler, error) {
	loc := time.UTC
	if tz := cfg.GetString("app.timezone"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = l
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		uc:     uc,
		locker: locker,
		uuid:   uuid,
	}

	spec := func(key, def string) string {
		if v := cfg.GetString(key); v != "" {
			return v
		}
		return def
	}

	jobs := []schedulerJob{
		{"match", spec("cron.match", "*/5 * * * *"), uc.RunMatch},
		{"hot_alert", spec("cron.hot_alert", "*/15 * * * *"), uc.RunHotAlert},
		{"opportunity", spec("cron.opportunity", "0 10 * * *"), uc.RunOpportunity},
		{"weekly_digest", spec("cron.weekly_digest", "0 9 * * 0"), uc.RunWeeklyDigest},
		{"expiry_reminder", spec("cron.expiry_reminder", "0 18 * * *"), uc.RunExpiryReminder},
		{"inactivity_nudge", spec("cron.inactivity_nudge", "0 12 * * *"), uc.RunInactivityNudge},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() { s.execute(job) }); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) execute(job schedulerJob) {
	ctx := instrument.SetCorrelationID(context.Background(), s.uuid.Generate())

	err := s.locker.Exec(ctx, job.name, runLockTTL, func(ctx context.Context) error {
		summary, err := job.run(ctx)
		if err != nil {
			return err
		}

		slog.InfoContext(ctx, "scheduled job finished",
			"job", job.name,
			"execution_time", summary.ExecutionTime,
			"sent", summary.Result.Sent,
			"skipped", summary.Result.Skipped,
			"deferred", summary.Result.Deferred,
			"failed", summary.Result.Failed,
		)
		return nil
	})
	if errors.Is(err, idempotency.ErrAlreadyRunning) {
		slog.InfoContext(ctx, "scheduled job skipped, another run holds the lock", "job", job.name)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "scheduled job failed", "job", job.name, "error", err)
	}
}
