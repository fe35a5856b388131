// Command kvproxy serves the Workers KV proxy API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaborage/go-fetch/cloudflare"
	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/notify"
	"github.com/gaborage/go-fetch/observability"
	"github.com/gaborage/go-fetch/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	otelProvider, err := observability.NewProvider(cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.Shutdown(otelProvider, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	kv, err := cloudflare.NewKVFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := kv.VerifyToken(ctx)
	if err != nil {
		return fmt.Errorf("verify cloudflare token: %w", err)
	}
	if !status.Active() {
		return fmt.Errorf("cloudflare token is %s", status.Status)
	}

	tg, err := notify.NewTelegramFromConfig(cfg, log)
	switch {
	case config.IsNotConfigured(err):
		log.Info().Msg("Telegram notifications disabled")
	case err != nil:
		return err
	default:
		announce(ctx, tg, log, fmt.Sprintf("<b>%s</b> %s started", cfg.App.Name, cfg.App.Version))
	}

	runErr := server.New(cfg, log, kv).Run(ctx, shutdownTimeout)

	if tg != nil {
		announceCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		announce(announceCtx, tg, log, fmt.Sprintf("<b>%s</b> stopped", cfg.App.Name))
	}
	return runErr
}

func announce(ctx context.Context, tg *notify.Telegram, log logger.Logger, line string) {
	if _, err := tg.Send(ctx, line); err != nil {
		log.Warn().Err(err).Msg("Telegram notification failed")
	}
}
