package installment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-billing/internal/cache"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

func TestList_PresetsAndPaging(t *testing.T) {
	today := day(2025, 10, 15)
	explicitFrom, explicitTo := day(2025, 1, 1), day(2025, 2, 1)

	tests := []struct {
		name      string
		query     models.InstallmentQuery
		wantFrom  *time.Time
		wantTo    *time.Time
		wantLimit int
		wantOff   int
	}{
		{
			name:      "today",
			query:     models.InstallmentQuery{Preset: models.PresetToday},
			wantFrom:  &today,
			wantTo:    &today,
			wantLimit: 25,
		},
		{
			name:      "next 7 days overrides explicit range",
			query:     models.InstallmentQuery{Preset: models.PresetNext7Days, Filter: models.InstallmentFilter{DueFrom: &explicitFrom, DueTo: &explicitTo}},
			wantFrom:  &today,
			wantTo:    ptrTime(day(2025, 10, 22)),
			wantLimit: 25,
		},
		{
			name:      "next 30 days, third page",
			query:     models.InstallmentQuery{Preset: models.PresetNext30Days, Page: models.Page{Page: 3, PageSize: 10}},
			wantFrom:  &today,
			wantTo:    ptrTime(day(2025, 11, 14)),
			wantLimit: 10,
			wantOff:   20,
		},
		{
			name:      "huge page number clamped",
			query:     models.InstallmentQuery{Preset: models.PresetToday, Page: models.Page{Page: math.MaxInt, PageSize: 10}},
			wantFrom:  &today,
			wantTo:    &today,
			wantLimit: 10,
			wantOff:   (models.MaxPage - 1) * 10,
		},
		{
			name:      "explicit range, page size capped",
			query:     models.InstallmentQuery{Filter: models.InstallmentFilter{DueFrom: &explicitFrom, DueTo: &explicitTo}, Page: models.Page{PageSize: 1000}},
			wantFrom:  &explicitFrom,
			wantTo:    &explicitTo,
			wantLimit: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc, _ := newTestService(repo, new(CacheMock), new(PublisherMock), 10)
			matchRange := mock.MatchedBy(func(f models.InstallmentFilter) bool {
				return f.DueFrom != nil && f.DueTo != nil && f.DueFrom.Equal(*tt.wantFrom) && f.DueTo.Equal(*tt.wantTo)
			})
			rows := []models.InstallmentRow{{FeeInstallment: models.FeeInstallment{ID: 1}}}

			repo.On("ListInstallments", mock.Anything, matchRange, tt.wantLimit, tt.wantOff).Return(rows, nil).Once()
			repo.On("CountInstallments", mock.Anything, matchRange).Return(41, nil).Once()

			page, err := svc.List(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, rows, page.Rows)
			assert.Equal(t, 41, page.Total)
			assert.Equal(t, tt.wantLimit, page.PageSize)
			repo.AssertExpectations(t)
		})
	}
}

func TestList_InvalidQuery(t *testing.T) {
	from, to := day(2025, 3, 1), day(2025, 2, 1)
	tests := []struct {
		name  string
		query models.InstallmentQuery
	}{
		{name: "unknown status", query: models.InstallmentQuery{Filter: models.InstallmentFilter{Statuses: []models.InstallmentStatus{"late"}}}},
		{name: "unknown preset", query: models.InstallmentQuery{Preset: "yesterday"}},
		{name: "inverted range", query: models.InstallmentQuery{Filter: models.InstallmentFilter{DueFrom: &from, DueTo: &to}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc, _ := newTestService(repo, new(CacheMock), new(PublisherMock), 10)

			_, err := svc.List(context.Background(), tt.query)
			assert.ErrorIs(t, err, models.ErrValidation)

			_, err = svc.Breakdown(context.Background(), tt.query)
			assert.ErrorIs(t, err, models.ErrValidation)
			repo.AssertNotCalled(t, "ListInstallments", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBreakdown_CacheMissFillsZeroStatuses(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	svc, _ := newTestService(repo, c, new(PublisherMock), 10)
	filter := models.InstallmentFilter{TeamIDs: []int64{2}}
	key, err := cache.BreakdownKey(4, filter)
	require.NoError(t, err)

	c.On("Generation", mock.Anything, cache.KPIGenerationKey).Return(int64(4), nil).Once()
	c.On("Get", mock.Anything, key, mock.Anything).Return(false, nil).Once()
	repo.On("StatusBreakdown", mock.Anything, filter).Return([]models.StatusTotals{
		{Status: models.StatusPaid, Count: 2, Amount: decimal.RequireFromString("500"), Paid: decimal.RequireFromString("500")},
		{Status: models.StatusOverdue, Count: 1, Amount: decimal.RequireFromString("250"), Paid: decimal.Zero},
	}, nil).Once()
	c.On("Set", mock.Anything, key, mock.AnythingOfType("*models.StatusBreakdown"), time.Minute).Return(nil).Once()

	got, err := svc.Breakdown(context.Background(), models.InstallmentQuery{Filter: filter, Page: models.Page{Page: 9, PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, got.ByStatus, len(models.InstallmentStatuses))
	for i, st := range models.InstallmentStatuses {
		assert.Equal(t, st, got.ByStatus[i].Status)
	}
	assert.Equal(t, 0, got.ByStatus[0].Count)
	assert.Equal(t, 3, got.TotalCount)
	assert.True(t, decimal.RequireFromString("750").Equal(got.TotalAmount))
	assert.True(t, decimal.RequireFromString("500").Equal(got.TotalPaid))
	c.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestBreakdown_CacheHit(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	svc, _ := newTestService(repo, c, new(PublisherMock), 10)

	c.On("Generation", mock.Anything, cache.KPIGenerationKey).Return(int64(1), nil).Once()
	c.On("Get", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*models.StatusBreakdown)
			out.TotalCount = 7
		}).
		Return(true, nil).Once()

	got, err := svc.Breakdown(context.Background(), models.InstallmentQuery{})
	require.NoError(t, err)
	assert.Equal(t, 7, got.TotalCount)
	repo.AssertNotCalled(t, "StatusBreakdown", mock.Anything, mock.Anything)
}

func TestBreakdown_CacheDownFallsBackToStore(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	svc, _ := newTestService(repo, c, new(PublisherMock), 10)

	c.On("Generation", mock.Anything, cache.KPIGenerationKey).Return(int64(0), errors.New("dial tcp: connection refused")).Once()
	repo.On("StatusBreakdown", mock.Anything, models.InstallmentFilter{}).Return([]models.StatusTotals(nil), nil).Once()

	got, err := svc.Breakdown(context.Background(), models.InstallmentQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalCount)
	assert.Len(t, got.ByStatus, len(models.InstallmentStatuses))
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBreakdown_SearchSkipsCache(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	svc, _ := newTestService(repo, c, new(PublisherMock), 10)
	filter := models.InstallmentFilter{Search: "rossi"}

	repo.On("StatusBreakdown", mock.Anything, filter).Return([]models.StatusTotals{
		{Status: models.StatusOverdue, Count: 1, Amount: decimal.RequireFromString("250"), Paid: decimal.Zero},
	}, nil).Once()

	got, err := svc.Breakdown(context.Background(), models.InstallmentQuery{Filter: filter})
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalCount)
	c.AssertNotCalled(t, "Generation", mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func ptrTime(t time.Time) *time.Time { return &t }
