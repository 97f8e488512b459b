package installment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// MarkPaid отмечает рассрочки оплаченными и возвращает результат по каждому id.
// Повторная отметка уже оплаченной рассрочки ничего не меняет (already_paid),
// ошибка по одному id не прерывает пакет.
func (s *Service) MarkPaid(ctx context.Context, ids []int64, paymentDate time.Time, method string) ([]models.PaymentResult, error) {
	method = strings.TrimSpace(method)
	if len(ids) == 0 {
		return nil, models.NewValidationError("ids must not be empty")
	}
	if method == "" {
		return nil, models.NewValidationError("method is required")
	}
	if paymentDate.IsZero() {
		return nil, models.NewValidationError("payment_date is required")
	}
	paidAt := clock.Day(paymentDate)

	results := make([]models.PaymentResult, 0, len(ids))
	var updated []int64
	for _, id := range uniqueIDs(ids) {
		r := models.PaymentResult{ID: id}
		if err := ctx.Err(); err != nil {
			r.Outcome = models.OutcomeFailed
			r.Error = "canceled"
			results = append(results, r)
			continue
		}

		outcome, err := s.repo.MarkInstallmentPaid(ctx, id, paidAt, method)
		if err != nil {
			s.log.Error("failed to mark installment paid", slog.Int64("id", id), sl.Err(err))
			r.Outcome = models.OutcomeFailed
			r.Error = "failed to record payment"
		} else {
			r.Outcome = outcome
		}
		if r.Outcome == models.OutcomeUpdated {
			updated = append(updated, id)
		}
		s.metrics.Payments.WithLabelValues("installment", string(r.Outcome)).Inc()
		results = append(results, r)
	}

	if len(updated) > 0 {
		s.bumpKPI(context.WithoutCancel(ctx))
		event := models.PaymentsRecordedEvent{Kind: "installment", IDs: updated, PaidAt: paidAt, Method: method}
		if err := s.publisher.Publish(context.WithoutCancel(ctx), rabbitmq.KeyInstallmentsPaid, event); err != nil {
			s.log.Error("failed to publish payment event", sl.Err(err))
		}
	}
	s.log.Info("recorded installment payments", slog.Int("requested", len(results)), slog.Int("updated", len(updated)))
	return results, nil
}

// uniqueIDs убирает повторы, сохраняя порядок.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
