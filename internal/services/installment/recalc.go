package installment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/club-billing/internal/billing"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Recalculate заново вычисляет статусы неоплаченных рассрочек без ручного статуса.
//
// Строки читаются страницами по id, каждая страница записывается своей транзакцией,
// поэтому отмена ctx оставляет согласованный частичный результат: он возвращается
// вместе с ошибкой, а повторный запуск досчитает остальное. Запись каждой строки
// условна (paid_at IS NULL на момент записи), так что параллельная оплата никогда
// не перезаписывается; такие строки попадают в SkippedPaid.
func (s *Service) Recalculate(ctx context.Context, scope models.RecalcScope) (*models.RecalcResult, error) {
	const op = "installment.Recalculate"

	started := time.Now()
	today := clock.Today(s.clock)
	res := &models.RecalcResult{RunID: uuid.NewString()}
	log := s.log.With(slog.String("op", op), slog.String("run_id", res.RunID), slog.Time("day", today))

	err := s.recalculate(ctx, scope, today, res, log)
	s.metrics.ObserveRecalc(started, err)

	if res.Updated > 0 {
		s.bumpKPI(context.WithoutCancel(ctx))
	}
	if len(res.BecameOverdue) > 0 {
		event := models.InstallmentsOverdueEvent{RunID: res.RunID, InstallmentIDs: res.BecameOverdue, Day: today}
		if perr := s.publisher.Publish(context.WithoutCancel(ctx), rabbitmq.KeyInstallmentsOverdue, event); perr != nil {
			log.Error("failed to publish overdue event", sl.Err(perr))
		}
	}

	attrs := []any{
		slog.Int("scanned", res.Scanned),
		slog.Int("updated", res.Updated),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("skipped_paid", res.SkippedPaid),
		slog.Int("failed", res.Failed),
		slog.Duration("took", time.Since(started)),
	}
	if err != nil {
		log.Error("recalculation stopped", append(attrs, sl.Err(err))...)
		return res, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("recalculation finished", attrs...)
	return res, nil
}

func (s *Service) recalculate(ctx context.Context, scope models.RecalcScope, today time.Time, res *models.RecalcResult, log *slog.Logger) error {
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := s.repo.ListRecalcCandidates(ctx, scope, afterID, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		afterID = page[len(page)-1].ID
		res.Scanned += len(page)

		changes := make([]models.StatusChange, 0, len(page))
		for _, c := range page {
			status := billing.Resolve(c.DueDate, nil, today, s.cfg.DueSoonWindow)
			if status == c.Status {
				res.Unchanged++
				continue
			}
			changes = append(changes, models.StatusChange{ID: c.ID, Status: status})
		}

		if len(changes) > 0 {
			s.applyPage(ctx, changes, res, log)
		}
		if len(page) < s.cfg.BatchSize {
			return nil
		}
	}
}

// applyPage записывает изменения страницы. Ошибка записи не останавливает пересчёт:
// строки страницы считаются Failed и будут пересчитаны при следующем запуске.
func (s *Service) applyPage(ctx context.Context, changes []models.StatusChange, res *models.RecalcResult, log *slog.Logger) {
	applied, err := s.repo.ApplyStatusChanges(ctx, changes)
	if err != nil {
		res.Failed += len(changes)
		log.Error("failed to write recalculation page",
			slog.Int64("first_id", changes[0].ID),
			slog.Int("rows", len(changes)),
			sl.Err(err))
		return
	}

	done := make(map[int64]struct{}, len(applied))
	for _, id := range applied {
		done[id] = struct{}{}
	}
	for _, c := range changes {
		if _, ok := done[c.ID]; !ok {
			res.SkippedPaid++
			continue
		}
		res.Updated++
		s.metrics.StatusUpdates.WithLabelValues(string(c.Status)).Inc()
		if c.Status == models.StatusOverdue {
			res.BecameOverdue = append(res.BecameOverdue, c.ID)
		}
	}
}
