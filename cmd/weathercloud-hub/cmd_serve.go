package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/pwshub/weathercloud-hub/internal/api/http"
	"github.com/pwshub/weathercloud-hub/internal/mqtt"
	"github.com/pwshub/weathercloud-hub/internal/scheduler"
	"github.com/pwshub/weathercloud-hub/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hub: poll watched stations, serve HTTP, fan out over MQTT",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	h, err := newHub()
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h.service.RestoreSession(ctx)

	// Optional MQTT fan-out; the hub serves HTTP either way.
	if h.cfg.MQTTBroker != "" {
		pub := mqtt.NewPublisher(h.cfg, h.logger)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := pub.Connect(connectCtx)
		cancel()
		if err != nil {
			h.logger.Warn("mqtt unavailable, continuing without fan-out", "error", err)
		} else {
			defer pub.Disconnect()
			h.service = service.New(h.client, h.store, pub, h.logger)
		}
	}

	sched := scheduler.New(h.cfg.WatchStations, h.cfg.FetchInterval, h.service, h.logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(h.service)
	go func() {
		if err := app.Listen(":" + h.cfg.Port); err != nil {
			h.logger.Error("http server stopped", "error", err)
		}
	}()
	h.logger.Info("hub listening", "port", h.cfg.Port, "stations", h.cfg.WatchStations)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		h.logger.Error("error during shutdown", "error", err)
	}
	return nil
}
