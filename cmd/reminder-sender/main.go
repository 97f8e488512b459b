package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/club-billing/internal/app/reminder"
	"github.com/magabrotheeeer/club-billing/internal/config"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting reminder sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := reminder.New(cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("failed to initialize reminder app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("reminder app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("reminder app stopped gracefully")
}
