// Package scheduler периодически запускает пересчёт статусов рассрочек внутри сервера.
// Для внешнего cron есть отдельный бинарник cmd/recalculate; оба пути безопасны
// одновременно, потому что записи пересчёта условные.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Recalculator выполняет один прогон пересчёта.
type Recalculator interface {
	Recalculate(ctx context.Context, scope models.RecalcScope) (*models.RecalcResult, error)
}

// Scheduler запускает пересчёт сразу и затем каждые interval.
type Scheduler struct {
	recalc   Recalculator
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

// New создает Scheduler. timeout ограничивает один прогон.
func New(recalc Recalculator, interval, timeout time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		recalc:   recalc,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Run блокируется до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	const op = "services.scheduler.runOnce"
	log := s.log.With(slog.String("op", op))

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Info("starting scheduled recalculation")
	res, err := s.recalc.Recalculate(runCtx, models.RecalcScope{})
	if err != nil {
		log.Error("scheduled recalculation failed", sl.Err(err))
		return
	}
	log.Info("scheduled recalculation finished",
		slog.String("run_id", res.RunID),
		slog.Int("updated", res.Updated),
		slog.Int("became_overdue", len(res.BecameOverdue)),
	)
}
