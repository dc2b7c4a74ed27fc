package app

import (
	"log/slog"
	"os"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline"
)

func (a *App) initModules() {
	scheduler, err := pipeline.New(pipeline.Dependency{
		DBConn:     a.dbConn,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Validator:  a.validator,
		Router:     a.router,
		Mail:       a.mail,
		Push:       a.push,
		Locker:     a.locker,
	})
	if err != nil {
		slog.Error("failed to init module pipeline", "error", err)
		os.Exit(1)
	}

	a.scheduler = scheduler
}
