package installment

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListRecalcCandidates(ctx context.Context, scope models.RecalcScope, afterID int64, limit int) ([]models.RecalcCandidate, error) {
	args := m.Called(ctx, scope, afterID, limit)
	rows, _ := args.Get(0).([]models.RecalcCandidate)
	return rows, args.Error(1)
}

func (m *RepoMock) ApplyStatusChanges(ctx context.Context, changes []models.StatusChange) ([]int64, error) {
	args := m.Called(ctx, changes)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *RepoMock) MarkInstallmentPaid(ctx context.Context, id int64, paidAt time.Time, method string) (models.PaymentOutcome, error) {
	args := m.Called(ctx, id, paidAt, method)
	return args.Get(0).(models.PaymentOutcome), args.Error(1)
}

func (m *RepoMock) ReadInstallment(ctx context.Context, id int64) (*models.FeeInstallment, error) {
	args := m.Called(ctx, id)
	fi, _ := args.Get(0).(*models.FeeInstallment)
	return fi, args.Error(1)
}

func (m *RepoMock) SetInstallmentStatus(ctx context.Context, id int64, status models.InstallmentStatus, paidAt *time.Time, notes string) error {
	return m.Called(ctx, id, status, paidAt, notes).Error(0)
}

func (m *RepoMock) ClearOverride(ctx context.Context, id int64, derived models.InstallmentStatus) error {
	return m.Called(ctx, id, derived).Error(0)
}

func (m *RepoMock) ListInstallments(ctx context.Context, f models.InstallmentFilter, limit, offset int) ([]models.InstallmentRow, error) {
	args := m.Called(ctx, f, limit, offset)
	rows, _ := args.Get(0).([]models.InstallmentRow)
	return rows, args.Error(1)
}

func (m *RepoMock) CountInstallments(ctx context.Context, f models.InstallmentFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) StatusBreakdown(ctx context.Context, f models.InstallmentFilter) ([]models.StatusTotals, error) {
	args := m.Called(ctx, f)
	rows, _ := args.Get(0).([]models.StatusTotals)
	return rows, args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Generation(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CacheMock) Bump(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

var now = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *RepoMock, c *CacheMock, pub *PublisherMock, batch int) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(repo, c, pub, clock.Fixed{T: now}, m, Config{
		DueSoonWindow:   7 * 24 * time.Hour,
		BatchSize:       batch,
		KPICacheTTL:     time.Minute,
		DefaultPageSize: 25,
		MaxPageSize:     100,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, m
}
