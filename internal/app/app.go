package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/inbound"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	locker    idempotency.Locker
	mail      mail.Mail
	push      push.Sender

	// server
	router     *router.Router
	httpServer *http.Server
	scheduler  *inbound.Scheduler

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initPush()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
