package pipeline

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/inbound"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/outbound/db"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/outbound/email"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/outbound/probe"
	outpush "github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/outbound/push"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/usecase"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/clock"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/config"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/idempotency"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/instrument"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/mail"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/push"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/router"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/uid"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Validator  validator.Validator
	Router     *router.Router
	Mail       mail.Mail
	Push       push.Sender
	Locker     idempotency.Locker
}

// New wires the pipeline module and returns its cron scheduler so the app
// can start and stop it with the server lifecycle.
func New(dep Dependency) (*inbound.Scheduler, error) {
	dbPipeline := db.NewDB(dep.DBConn, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.Instrument)
	repoPush := outpush.New(dep.Push, dep.Instrument)
	source := probe.New(probe.Config{
		BaseURL:    dep.Config.GetString("probe.base_url"),
		APIKey:     dep.Config.GetString("probe.api_key"),
		Timeout:    dep.Config.GetSecond("probe.timeout_seconds"),
		MaxRetries: uint64(dep.Config.GetInt("probe.max_retries")),
	}, dep.Instrument)

	uc := usecase.NewPipeline(usecase.Dependency{
		RepoDB:     dbPipeline,
		Source:     source,
		RepoMail:   repoMail,
		RepoPush:   repoPush,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetString("app.trigger_token"), dep.Locker)

	return inbound.RegisterCron(dep.Config, uc, dep.Locker, dep.UUID)
}
