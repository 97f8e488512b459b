// Package installment — сервис персональных рассрочек: пересчёт статусов,
// отметка оплаты, ручной статус и списки с разбивкой по статусам для дашбордов.
package installment

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/billing"
	"github.com/magabrotheeeer/club-billing/internal/cache"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Repository — хранилище рассрочек.
type Repository interface {
	ListRecalcCandidates(ctx context.Context, scope models.RecalcScope, afterID int64, limit int) ([]models.RecalcCandidate, error)
	ApplyStatusChanges(ctx context.Context, changes []models.StatusChange) ([]int64, error)
	MarkInstallmentPaid(ctx context.Context, id int64, paidAt time.Time, method string) (models.PaymentOutcome, error)
	ReadInstallment(ctx context.Context, id int64) (*models.FeeInstallment, error)
	SetInstallmentStatus(ctx context.Context, id int64, status models.InstallmentStatus, paidAt *time.Time, notes string) error
	ClearOverride(ctx context.Context, id int64, derived models.InstallmentStatus) error
	ListInstallments(ctx context.Context, f models.InstallmentFilter, limit, offset int) ([]models.InstallmentRow, error)
	CountInstallments(ctx context.Context, f models.InstallmentFilter) (int, error)
	StatusBreakdown(ctx context.Context, f models.InstallmentFilter) ([]models.StatusTotals, error)
}

// Cache — кэш агрегатов с поколениями.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
}

// Publisher отправляет события биллинга.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Config — параметры сервиса.
type Config struct {
	DueSoonWindow   time.Duration
	BatchSize       int
	KPICacheTTL     time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// Service реализует операции над рассрочками.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	cfg       Config
	log       *slog.Logger
}

// NewService создаёт сервис рассрочек. Нулевые параметры заменяются значениями по умолчанию.
func NewService(repo Repository, c Cache, publisher Publisher, clk clock.Clock, m *metrics.Metrics, cfg Config, log *slog.Logger) *Service {
	if cfg.DueSoonWindow <= 0 {
		cfg.DueSoonWindow = billing.DefaultDueSoonWindow
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 25
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
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

func (s *Service) bumpKPI(ctx context.Context) {
	if _, err := s.cache.Bump(ctx, cache.KPIGenerationKey); err != nil {
		s.log.Warn("failed to invalidate kpi cache", sl.Err(err))
	}
}
