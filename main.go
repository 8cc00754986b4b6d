package main

import (
	"calbot/app/client/gcal"
	"calbot/app/config"
	"calbot/app/server"
	"calbot/app/service/booking"
	"calbot/app/service/extract"
	"calbot/app/service/session"
	"calbot/app/util/mylog"
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, gcal.NewClient)
	do.Provide(di, extract.New)
	do.Provide(di, func(di *do.Injector) (booking.CalendarProvider, error) {
		return do.Invoke[*gcal.Client](di)
	})
	do.Provide(di, func(di *do.Injector) (booking.TimeExtractor, error) {
		return do.Invoke[*extract.Service](di)
	})
	do.Provide(di, session.New)
	do.Provide(di, booking.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	if err = do.MustInvoke[*server.Server](di).Run(appCtx); err != nil {
		slog.Error("Server stopped", "error", err)
	}
}
