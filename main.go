package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"rally/calendar"
	"rally/config"
	"rally/persist"
	"rally/routes"
	"rally/tripapi"
)

func main() {
	if err := config.LoadAppConfig(); err != nil {
		log.Fatal(err)
	}
	cfg := config.Config

	app := pocketbase.New()

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		store, err := newStore(se.App, cfg.Storage)
		if err != nil {
			return err
		}

		rally := routes.NewRally(
			tripapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout()),
			persist.NewSessions(store, cfg.Storage.TTL()),
			calendar.NewExporter(calendar.Options{
				DefaultTimezone: cfg.Calendar.DefaultTimezone,
				SkipSkipped:     cfg.Calendar.SkipSkipped,
			}, se.App.Logger()),
			se.App.Logger(),
		)
		rally.Register(se)

		se.App.Logger().Info("Rally routes registered", "tripService", cfg.API.BaseURL, "storage", cfg.Storage.Driver)
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func newStore(app core.App, cfg config.StorageConfig) (persist.Store, error) {
	if cfg.Driver != "sqlite" {
		return persist.NewMemoryStore(cfg.TTL(), cfg.CleanupInterval()), nil
	}

	store, err := persist.NewSQLStore(app.DB(), cfg.TTL())
	if err != nil {
		return nil, err
	}

	app.Cron().MustAdd("rallyPurgeExpired", "0 * * * *", func() {
		removed, err := store.PurgeExpired()
		if err != nil {
			app.Logger().Error("Purging expired client state failed", "error", err)
			return
		}
		if removed > 0 {
			app.Logger().Debug("Purged expired client state", "removed", removed)
		}
	})

	return store, nil
}
