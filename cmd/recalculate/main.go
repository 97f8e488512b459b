// Package main — одноразовый пересчёт статусов рассрочек для запуска из внешнего cron.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/club-billing/internal/app/clubbilling"
	"github.com/magabrotheeeer/club-billing/internal/config"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RecalcTimeout)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("recalculation failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	infra, err := clubbilling.NewInfra(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	services := clubbilling.NewServices(infra, cfg, logger)
	res, err := services.Installments.Recalculate(ctx, models.RecalcScope{})
	if res != nil {
		logger.Info("recalculation finished",
			slog.String("run_id", res.RunID),
			slog.Int("scanned", res.Scanned),
			slog.Int("updated", res.Updated),
			slog.Int("unchanged", res.Unchanged),
			slog.Int("skipped_paid", res.SkippedPaid),
			slog.Int("failed", res.Failed),
			slog.Int("became_overdue", len(res.BecameOverdue)),
		)
	}
	return err
}
