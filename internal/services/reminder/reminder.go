// Package reminder рассылает спортсменам письма о рассрочках, ставших просроченными
// за прогон пересчёта. Источник — событие installments.overdue из RabbitMQ.
package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Repository читает получателей напоминаний.
type Repository interface {
	ListOverdueReminders(ctx context.Context, ids []int64) ([]models.OverdueReminder, error)
}

// Mailer отправляет одно письмо.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service формирует и отправляет напоминания.
type Service struct {
	repo    Repository
	mailer  Mailer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewService создает Service.
func NewService(repo Repository, mailer Mailer, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		mailer:  mailer,
		metrics: m,
		log:     log,
	}
}

// HandleOverdue обрабатывает событие о новых просрочках.
// Ошибка возвращается только если событие не разобрано или не прочитаны получатели:
// неудачное письмо логируется и не возвращает событие в очередь, иначе остальным
// спортсменам письмо пришло бы повторно.
func (s *Service) HandleOverdue(ctx context.Context, body []byte) error {
	const op = "services.reminder.HandleOverdue"
	log := s.log.With(slog.String("op", op))

	var event models.InstallmentsOverdueEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	log = log.With(slog.String("run_id", event.RunID))

	reminders, err := s.repo.ListOverdueReminders(ctx, event.InstallmentIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	for _, r := range reminders {
		subject, text := compose(r)
		if err := s.mailer.Send(ctx, r.Email, subject, text); err != nil {
			log.Error("failed to send reminder", slog.Int64("installment_id", r.InstallmentID), sl.Err(err))
			s.metrics.Reminders.WithLabelValues("failed").Inc()
			continue
		}
		s.metrics.Reminders.WithLabelValues("sent").Inc()
		sent++
	}

	log.Info("overdue reminders processed",
		slog.Int("installments", len(event.InstallmentIDs)),
		slog.Int("recipients", len(reminders)),
		slog.Int("sent", sent),
	)
	return nil
}

func compose(r models.OverdueReminder) (string, string) {
	subject := fmt.Sprintf("Просроченный взнос: %s", r.PlanName)
	body := fmt.Sprintf("Здравствуйте, %s!\n\n"+
		"Взнос по плану «%s» на сумму %s со сроком оплаты %s не оплачен.\n\n"+
		"Пожалуйста, оплатите его или свяжитесь с администрацией клуба.",
		r.AthleteName, r.PlanName, r.Amount.StringFixed(2), r.DueDate.Format("02.01.2006"))
	return subject, body
}
