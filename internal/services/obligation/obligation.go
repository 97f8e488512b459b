// Package obligation — сервис прочих расходов клуба: разовые обязательства,
// разворачивание повторяющихся расходов в график и отметка оплаты.
package obligation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/billing"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Repository — хранилище обязательств.
type Repository interface {
	CreateObligations(ctx context.Context, items []models.GeneralObligation) ([]int64, error)
	ReadObligation(ctx context.Context, id int64) (*models.GeneralObligation, error)
	SetObligationStatus(ctx context.Context, id int64, status models.ObligationStatus, paidAt *time.Time) (models.PaymentOutcome, error)
	ListObligations(ctx context.Context, f models.ObligationFilter) ([]models.GeneralObligation, error)
}

// Publisher отправляет события биллинга.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service реализует операции над обязательствами.
type Service struct {
	repo      Repository
	publisher Publisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewService создаёт сервис обязательств.
func NewService(repo Repository, publisher Publisher, clk clock.Clock, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		metrics:   m,
		log:       log,
	}
}

// Create создаёт разовое обязательство в статусе to_pay.
func (s *Service) Create(ctx context.Context, req models.DummyObligation) (*models.GeneralObligation, error) {
	base, err := newObligation(req.Category, req.Description, req)
	if err != nil {
		return nil, err
	}
	due, err := models.ParseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	base.Frequency = models.FrequencyOneTime
	base.DueDate = due

	ids, err := s.repo.CreateObligations(ctx, []models.GeneralObligation{base})
	if err != nil {
		return nil, err
	}
	s.log.Info("created obligation", slog.Int64("id", ids[0]), slog.String("category", string(base.Category)))
	return s.repo.ReadObligation(ctx, ids[0])
}

// GenerateRecurring разворачивает повторяющийся расход в отдельные строки,
// по одной на каждую дату графика. Явный Recurrence имеет приоритет; без него
// тип определяется по свободному тексту Pattern. Все строки создаются одной транзакцией.
func (s *Service) GenerateRecurring(ctx context.Context, req models.DummyRecurringObligation) ([]models.GeneralObligation, error) {
	base, err := newObligation(req.Category, req.Description, models.DummyObligation{
		Amount:     req.Amount,
		GymID:      req.GymID,
		ActivityID: req.ActivityID,
		TeamID:     req.TeamID,
		CoachID:    req.CoachID,
	})
	if err != nil {
		return nil, err
	}
	start, err := models.ParseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	rule, err := ruleFor(req)
	if err != nil {
		return nil, err
	}

	base.Frequency = models.FrequencyRecurring
	base.RecurrencePattern = strings.TrimSpace(req.Pattern)
	if base.RecurrencePattern == "" || req.Recurrence != "" {
		base.RecurrencePattern = string(rule.Kind)
	}

	dates := billing.Schedule(rule, start)
	items := make([]models.GeneralObligation, 0, len(dates))
	for _, d := range dates {
		item := base
		item.DueDate = d
		items = append(items, item)
	}

	ids, err := s.repo.CreateObligations(ctx, items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = ids[i]
	}
	s.log.Info("generated recurring obligations",
		slog.String("recurrence", string(rule.Kind)),
		slog.Int("count", len(items)),
		slog.Time("start", start))
	return items, nil
}

// ruleFor выбирает правило повторения. Пустой Recurrence означает старый формат:
// тип берётся из таблицы ключевых слов, по умолчанию monthly.
func ruleFor(req models.DummyRecurringObligation) (billing.Rule, error) {
	kind := billing.Recurrence(strings.ToLower(strings.TrimSpace(req.Recurrence)))
	switch kind {
	case "":
		return billing.RuleFor(billing.ParsePattern(req.Pattern))
	case billing.RecurrenceCustom:
		return billing.CustomRule(req.Count, req.StepMonths, req.StepDays)
	default:
		return billing.RuleFor(kind)
	}
}

func newObligation(category, description string, req models.DummyObligation) (models.GeneralObligation, error) {
	cat := models.ObligationCategory(category)
	if cat != models.CategoryGeneralCost && cat != models.CategoryCoachPayment {
		return models.GeneralObligation{}, models.NewValidationError(fmt.Sprintf("unknown category %q", category))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return models.GeneralObligation{}, models.NewValidationError("description is required")
	}
	if !req.Amount.IsPositive() {
		return models.GeneralObligation{}, models.NewValidationError("amount must be positive")
	}
	if !billing.IsCents(req.Amount) {
		return models.GeneralObligation{}, models.NewValidationError("amount must have at most two decimals")
	}
	return models.GeneralObligation{
		Category:    cat,
		Description: description,
		Amount:      req.Amount,
		Status:      models.ObligationToPay,
		GymID:       req.GymID,
		ActivityID:  req.ActivityID,
		TeamID:      req.TeamID,
		CoachID:     req.CoachID,
	}, nil
}

// SetStatus переводит обязательство в to_pay или paid. Оплата датируется текущим днём,
// возврат в to_pay сбрасывает дату оплаты.
func (s *Service) SetStatus(ctx context.Context, id int64, req models.DummyObligationStatus) (models.PaymentOutcome, error) {
	status := models.ObligationStatus(strings.TrimSpace(req.Status))
	var paidAt *time.Time
	switch status {
	case models.ObligationPaid:
		today := clock.Today(s.clock)
		paidAt = &today
	case models.ObligationToPay:
	default:
		return "", models.NewValidationError(fmt.Sprintf("unknown status %q", req.Status))
	}

	outcome, err := s.repo.SetObligationStatus(ctx, id, status, paidAt)
	if err != nil {
		return "", err
	}
	s.log.Info("obligation status set",
		slog.Int64("id", id),
		slog.String("status", string(status)),
		slog.String("outcome", string(outcome)))
	return outcome, nil
}

// MarkPaid отмечает обязательства оплаченными по тем же правилам, что и рассрочки:
// результат по каждому id, повторная отметка — already_paid.
func (s *Service) MarkPaid(ctx context.Context, ids []int64, paymentDate time.Time) ([]models.PaymentResult, error) {
	if len(ids) == 0 {
		return nil, models.NewValidationError("ids must not be empty")
	}
	if paymentDate.IsZero() {
		return nil, models.NewValidationError("payment_date is required")
	}
	paidAt := clock.Day(paymentDate)

	results := make([]models.PaymentResult, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	var updated []int64
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		r := models.PaymentResult{ID: id}
		if err := ctx.Err(); err != nil {
			r.Outcome, r.Error = models.OutcomeFailed, "canceled"
			results = append(results, r)
			continue
		}
		outcome, err := s.repo.SetObligationStatus(ctx, id, models.ObligationPaid, &paidAt)
		if err != nil {
			s.log.Error("failed to mark obligation paid", slog.Int64("id", id), sl.Err(err))
			outcome, r.Error = models.OutcomeFailed, "failed to record payment"
		}
		r.Outcome = outcome
		if outcome == models.OutcomeUpdated {
			updated = append(updated, id)
		}
		s.metrics.Payments.WithLabelValues("obligation", string(outcome)).Inc()
		results = append(results, r)
	}

	if len(updated) > 0 {
		event := models.PaymentsRecordedEvent{Kind: "obligation", IDs: updated, PaidAt: paidAt}
		if err := s.publisher.Publish(context.WithoutCancel(ctx), rabbitmq.KeyObligationsPaid, event); err != nil {
			s.log.Error("failed to publish payment event", sl.Err(err))
		}
	}
	return results, nil
}

// List возвращает обязательства по фильтру.
func (s *Service) List(ctx context.Context, f models.ObligationFilter) ([]models.GeneralObligation, error) {
	if f.Status != "" && f.Status != models.ObligationToPay && f.Status != models.ObligationPaid {
		return nil, models.NewValidationError(fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Category != "" && f.Category != models.CategoryGeneralCost && f.Category != models.CategoryCoachPayment {
		return nil, models.NewValidationError(fmt.Sprintf("unknown category %q", f.Category))
	}
	if f.DueFrom != nil && f.DueTo != nil && f.DueTo.Before(*f.DueFrom) {
		return nil, models.NewValidationError("due_to must not be before due_from")
	}
	return s.repo.ListObligations(ctx, f)
}
