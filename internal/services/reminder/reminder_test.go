package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListOverdueReminders(ctx context.Context, ids []int64) ([]models.OverdueReminder, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OverdueReminder), args.Error(1)
}

type MailerMock struct {
	mock.Mock
}

func (m *MailerMock) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func newTestService(repo *RepoMock, mailer *MailerMock) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewService(repo, mailer, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func reminder(id int64, email string) models.OverdueReminder {
	return models.OverdueReminder{
		InstallmentID: id,
		AthleteName:   "Luca Ferri",
		Email:         email,
		PlanName:      "Season 2025",
		Amount:        decimal.RequireFromString("250.5"),
		DueDate:       time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleOverdue(t *testing.T) {
	repo := new(RepoMock)
	mailer := new(MailerMock)
	s, m := newTestService(repo, mailer)

	repo.On("ListOverdueReminders", mock.Anything, []int64{1, 2, 3}).
		Return([]models.OverdueReminder{reminder(1, "luca@example.com"), reminder(3, "bad@example.com")}, nil)
	mailer.On("Send", mock.Anything, "luca@example.com", "Просроченный взнос: Season 2025",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Luca Ferri") &&
				strings.Contains(body, "250.50") &&
				strings.Contains(body, "01.09.2025")
		})).Return(nil).Once()
	mailer.On("Send", mock.Anything, "bad@example.com", mock.Anything, mock.Anything).
		Return(errors.New("550 mailbox unavailable")).Once()

	err := s.HandleOverdue(context.Background(),
		[]byte(`{"run_id":"r1","installment_ids":[1,2,3],"day":"2025-10-15T00:00:00Z"}`))
	require.NoError(t, err, "a failed email does not requeue the event")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reminders.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reminders.WithLabelValues("failed")))
	repo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestHandleOverdue_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(r *RepoMock)
		errText   string
	}{
		{
			name:      "некорректный JSON",
			body:      `not json`,
			setupMock: func(_ *RepoMock) {},
			errText:   "error unmarshalling message",
		},
		{
			name: "ошибка хранилища",
			body: `{"run_id":"r1","installment_ids":[7]}`,
			setupMock: func(r *RepoMock) {
				r.On("ListOverdueReminders", mock.Anything, []int64{7}).Return(nil, errors.New("db down"))
			},
			errText: "db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			mailer := new(MailerMock)
			tt.setupMock(repo)
			s, _ := newTestService(repo, mailer)

			err := s.HandleOverdue(context.Background(), []byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
			mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleOverdue_NothingToSend(t *testing.T) {
	repo := new(RepoMock)
	mailer := new(MailerMock)
	s, _ := newTestService(repo, mailer)

	repo.On("ListOverdueReminders", mock.Anything, []int64{4}).Return([]models.OverdueReminder{}, nil)

	require.NoError(t, s.HandleOverdue(context.Background(), []byte(`{"installment_ids":[4]}`)))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
