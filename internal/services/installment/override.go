package installment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/club-billing/internal/billing"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// SetStatus вручную задаёт статус рассрочки и включает ручной режим:
// пересчёт такую строку больше не трогает. Для paid дата оплаты — текущий день
// (уже оплаченная строка сохраняет свою дату), для остальных статусов она сбрасывается.
func (s *Service) SetStatus(ctx context.Context, id int64, req models.DummyInstallmentStatus) (*models.FeeInstallment, error) {
	status := models.InstallmentStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown status %q", req.Status))
	}

	current, err := s.repo.ReadInstallment(ctx, id)
	if err != nil {
		return nil, err
	}

	paidAt := current.PaidAt
	switch {
	case status != models.StatusPaid:
		paidAt = nil
	case paidAt == nil:
		today := clock.Today(s.clock)
		paidAt = &today
	}

	if err := s.repo.SetInstallmentStatus(ctx, id, status, paidAt, req.Notes); err != nil {
		return nil, err
	}
	s.bumpKPI(ctx)
	s.log.Info("installment status set manually",
		slog.Int64("id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)))

	return s.repo.ReadInstallment(ctx, id)
}

// ClearOverride выключает ручной режим и сразу записывает вычисленный статус.
func (s *Service) ClearOverride(ctx context.Context, id int64) (*models.FeeInstallment, error) {
	current, err := s.repo.ReadInstallment(ctx, id)
	if err != nil {
		return nil, err
	}

	derived := billing.Resolve(current.DueDate, current.PaidAt, clock.Today(s.clock), s.cfg.DueSoonWindow)
	if err := s.repo.ClearOverride(ctx, id, derived); err != nil {
		return nil, err
	}
	s.bumpKPI(ctx)
	s.log.Info("installment override cleared", slog.Int64("id", id), slog.String("status", string(derived)))

	return s.repo.ReadInstallment(ctx, id)
}
