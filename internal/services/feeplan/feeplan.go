// Package feeplan — сервис планов взносов: создание и изменение плана с пересчётом итога,
// шаблонный график платежей, удаление с защитой оплаченных рассрочек
// и генерация персональных рассрочек для состава команды.
package feeplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/club-billing/internal/billing"
	"github.com/magabrotheeeer/club-billing/internal/cache"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Repository — хранилище планов, состава команд и рассрочек.
type Repository interface {
	CreateFeePlan(ctx context.Context, plan models.FeePlan, schedule []models.PredefinedInstallment) (int64, error)
	UpdateFeePlan(ctx context.Context, plan models.FeePlan, schedule []models.PredefinedInstallment) error
	ReadFeePlan(ctx context.Context, id int64) (*models.FeePlan, error)
	ReplaceSchedule(ctx context.Context, planID int64, items []models.PredefinedInstallment) error
	DeleteFeePlan(ctx context.Context, id int64) error
	ListTeamAthleteIDs(ctx context.Context, teamID int64) ([]int64, error)
	InsertInstallments(ctx context.Context, rows []models.FeeInstallment) (int, error)
}

// Cache — кэш планов и счётчик поколений агрегатов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Bump(ctx context.Context, key string) (int64, error)
}

// Publisher отправляет события биллинга.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Config — параметры сервиса.
type Config struct {
	DueSoonWindow time.Duration
	PlanCacheTTL  time.Duration
}

// Service реализует операции над планами взносов.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	cfg       Config
	log       *slog.Logger
}

// NewService создаёт сервис планов взносов.
func NewService(repo Repository, c Cache, publisher Publisher, clk clock.Clock, m *metrics.Metrics, cfg Config, log *slog.Logger) *Service {
	if cfg.DueSoonWindow <= 0 {
		cfg.DueSoonWindow = billing.DefaultDueSoonWindow
	}
	return &Service{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		clock:     clk,
		metrics:   m,
		cfg:       cfg,
		log:       log,
	}
}

// Create создаёт план. Итог пересчитывается из составляющих; при RegenerateSchedule
// сразу создаётся график по умолчанию начиная с FirstDueDate.
func (s *Service) Create(ctx context.Context, req models.DummyFeePlan) (*models.FeePlan, error) {
	plan, schedule, err := buildPlan(req)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreateFeePlan(ctx, plan, schedule)
	if err != nil {
		return nil, err
	}
	s.log.Info("created fee plan", slog.Int64("id", id), slog.String("total", plan.TotalAmount.StringFixed(2)))

	return s.reload(ctx, id)
}

// Update изменяет план. Если RegenerateSchedule не указан, график остаётся прежним,
// и при расхождении сумм вызывающий получит предупреждение из ScheduleWarning.
func (s *Service) Update(ctx context.Context, id int64, req models.DummyFeePlan) (*models.FeePlan, *models.ScheduleWarning, error) {
	plan, schedule, err := buildPlan(req)
	if err != nil {
		return nil, nil, err
	}
	plan.ID = id

	// Прежний график должен укладываться в новое число рассрочек.
	if schedule == nil {
		current, err := s.repo.ReadFeePlan(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if len(current.Schedule) > 0 {
			if err := billing.ValidateSchedule(current.Schedule, plan.InstallmentsCount); err != nil {
				return nil, nil, models.NewValidationError(
					"stored schedule does not fit installments_count, set regenerate_schedule or replace the schedule: " + err.Error())
			}
		}
	}

	if err := s.repo.UpdateFeePlan(ctx, plan, schedule); err != nil {
		return nil, nil, err
	}
	s.invalidatePlan(ctx, id)
	s.bumpKPI(ctx)
	s.log.Info("updated fee plan", slog.Int64("id", id), slog.String("total", plan.TotalAmount.StringFixed(2)))

	updated, err := s.reload(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var warning *models.ScheduleWarning
	if len(updated.Schedule) > 0 {
		warning = billing.CheckScheduleTotal(updated.Schedule, updated.TotalAmount)
	}
	return updated, warning, nil
}

// Read возвращает план с графиком, используя кэш. Ошибки кэша не мешают чтению из БД.
func (s *Service) Read(ctx context.Context, id int64) (*models.FeePlan, error) {
	key := cache.FeePlanKey(id)
	var cached models.FeePlan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read fee plan from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}
	return s.reload(ctx, id)
}

// SetSchedule заменяет шаблонный график. Несовпадение суммы с итогом плана
// не является ошибкой: график сохраняется, а вызывающий получает предупреждение.
func (s *Service) SetSchedule(ctx context.Context, planID int64, req models.DummySchedule) (*models.ScheduleWarning, error) {
	plan, err := s.repo.ReadFeePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	items := make([]models.PredefinedInstallment, 0, len(req.Items))
	for _, it := range req.Items {
		due, err := models.ParseDate(fmt.Sprintf("items[%d].due_date", it.InstallmentNumber), it.DueDate)
		if err != nil {
			return nil, err
		}
		items = append(items, models.PredefinedInstallment{
			FeePlanID:         planID,
			InstallmentNumber: it.InstallmentNumber,
			DueDate:           due,
			Amount:            it.Amount,
		})
	}
	if err := billing.ValidateSchedule(items, plan.InstallmentsCount); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceSchedule(ctx, planID, items); err != nil {
		return nil, err
	}
	s.invalidatePlan(ctx, planID)

	warning := billing.CheckScheduleTotal(items, plan.TotalAmount)
	if warning != nil {
		s.log.Warn("schedule total differs from plan total",
			slog.Int64("fee_plan_id", planID),
			slog.String("scheduled", warning.ScheduledTotal.StringFixed(2)),
			slog.String("plan", warning.PlanTotal.StringFixed(2)))
	}
	return warning, nil
}

// Delete удаляет план. Если по плану есть оплаченные или частично оплаченные рассрочки,
// возвращается ErrConflict.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteFeePlan(ctx, id); err != nil {
		return err
	}
	s.invalidatePlan(ctx, id)
	s.bumpKPI(ctx)
	s.log.Info("deleted fee plan", slog.Int64("id", id))
	return nil
}

// GenerateInstallments создаёт рассрочки по графику плана для каждого спортсмена команды.
// Уже существующие строки не трогаются; сбой по одному спортсмену не останавливает остальных.
func (s *Service) GenerateInstallments(ctx context.Context, planID int64) (*models.GenerationResult, error) {
	const op = "feeplan.GenerateInstallments"

	plan, err := s.repo.ReadFeePlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Schedule) == 0 {
		return nil, models.NewValidationError("fee plan has no predefined installments")
	}
	athletes, err := s.repo.ListTeamAthleteIDs(ctx, plan.TeamID)
	if err != nil {
		return nil, err
	}
	if len(athletes) == 0 {
		return nil, models.NewValidationError("team roster is empty")
	}

	result := &models.GenerationResult{
		RunID:    uuid.NewString(),
		Failures: []models.GenerationFailure{},
	}
	log := s.log.With(slog.String("op", op), slog.String("run_id", result.RunID), slog.Int64("fee_plan_id", planID))
	today := clock.Today(s.clock)

	for _, athleteID := range athletes {
		if err := ctx.Err(); err != nil {
			s.finishGeneration(ctx, plan, result)
			return result, fmt.Errorf("%s: %w", op, err)
		}

		rows := make([]models.FeeInstallment, 0, len(plan.Schedule))
		for _, it := range plan.Schedule {
			rows = append(rows, models.FeeInstallment{
				FeePlanID:         plan.ID,
				AthleteID:         athleteID,
				InstallmentNumber: it.InstallmentNumber,
				DueDate:           it.DueDate,
				Amount:            it.Amount,
				Status:            billing.Resolve(it.DueDate, nil, today, s.cfg.DueSoonWindow),
			})
		}

		created, err := s.repo.InsertInstallments(ctx, rows)
		if err != nil {
			log.Error("failed to generate installments for athlete", slog.Int64("athlete_id", athleteID), sl.Err(err))
			result.Failures = append(result.Failures, models.GenerationFailure{
				AthleteID: athleteID,
				Error:     failureMessage(err),
			})
			continue
		}
		result.Created += created
		result.AlreadyExisted += len(rows) - created
	}

	log.Info("generated installments",
		slog.Int("created", result.Created),
		slog.Int("already_existed", result.AlreadyExisted),
		slog.Int("failures", len(result.Failures)))
	s.finishGeneration(ctx, plan, result)
	return result, nil
}

func (s *Service) finishGeneration(ctx context.Context, plan *models.FeePlan, result *models.GenerationResult) {
	if result.Created == 0 {
		return
	}
	s.metrics.InstallmentsGenerated.Add(float64(result.Created))
	s.bumpKPI(ctx)

	event := models.InstallmentsGeneratedEvent{
		RunID:          result.RunID,
		FeePlanID:      plan.ID,
		TeamID:         plan.TeamID,
		Created:        result.Created,
		AlreadyExisted: result.AlreadyExisted,
		Failed:         len(result.Failures),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), rabbitmq.KeyInstallmentsGenerated, event); err != nil {
		s.log.Error("failed to publish generation event", slog.String("run_id", result.RunID), sl.Err(err))
	}
}

func (s *Service) reload(ctx context.Context, id int64) (*models.FeePlan, error) {
	plan, err := s.repo.ReadFeePlan(ctx, id)
	if err != nil {
		return nil, err
	}
	key := cache.FeePlanKey(id)
	if err := s.cache.Set(ctx, key, plan, s.cfg.PlanCacheTTL); err != nil {
		s.log.Warn("failed to cache fee plan", slog.String("key", key), sl.Err(err))
	}
	return plan, nil
}

func (s *Service) invalidatePlan(ctx context.Context, id int64) {
	key := cache.FeePlanKey(id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove fee plan from cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) bumpKPI(ctx context.Context) {
	if _, err := s.cache.Bump(ctx, cache.KPIGenerationKey); err != nil {
		s.log.Warn("failed to invalidate kpi cache", sl.Err(err))
	}
}

// buildPlan переводит запрос в план, пересчитывает итог и при необходимости строит график.
func buildPlan(req models.DummyFeePlan) (models.FeePlan, []models.PredefinedInstallment, error) {
	plan := models.FeePlan{
		TeamID:            req.TeamID,
		Name:              req.Name,
		EnrollmentFee:     req.EnrollmentFee,
		InsuranceFee:      req.InsuranceFee,
		MonthlyFee:        req.MonthlyFee,
		MonthsCount:       req.MonthsCount,
		InstallmentsCount: req.InstallmentsCount,
	}
	plan.TotalAmount = billing.PlanTotal(plan.EnrollmentFee, plan.InsuranceFee, plan.MonthlyFee, plan.MonthsCount)
	if err := billing.ValidatePlan(plan); err != nil {
		return models.FeePlan{}, nil, err
	}
	if !req.RegenerateSchedule {
		return plan, nil, nil
	}

	firstDue, err := models.ParseDate("first_due_date", req.FirstDueDate)
	if err != nil {
		return models.FeePlan{}, nil, err
	}
	return plan, billing.DefaultSchedule(plan.TotalAmount, plan.InstallmentsCount, plan.MonthsCount, firstDue), nil
}

// failureMessage отдаёт клиенту причину без внутренних подробностей хранилища.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "athlete or fee plan not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failed to store installments"
	}
}
