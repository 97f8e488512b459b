package recurring

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GenerateRecurring(ctx context.Context, req models.DummyRecurringObligation) ([]models.GeneralObligation, error) {
	args := m.Called(ctx, req)
	items, _ := args.Get(0).([]models.GeneralObligation)
	return items, args.Error(1)
}

func TestRecurringHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "старый текстовый шаблон",
			body: `{"category":"general_cost","description":"Affitto","amount":"100","start_date":"2024-01-10","pattern":"Trimestrale"}`,
			setupMock: func(m *MockService) {
				m.On("GenerateRecurring", mock.Anything, mock.MatchedBy(func(r models.DummyRecurringObligation) bool {
					return r.Pattern == "Trimestrale" && r.Recurrence == ""
				})).Return([]models.GeneralObligation{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "неизвестный тип повторения",
			body:           `{"category":"general_cost","description":"Affitto","amount":"100","start_date":"2024-01-10","recurrence":"daily"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Recurrence must be one of`,
		},
		{
			name:           "custom со слишком большим числом повторений",
			body:           `{"category":"coach_payment","description":"Coach","amount":"250","start_date":"2024-01-10","recurrence":"custom","count":2000000000,"step_days":1}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Count must be lte 120`,
		},
		{
			name: "custom без шага",
			body: `{"category":"coach_payment","description":"Coach","amount":"250","start_date":"2024-01-10","recurrence":"custom","count":3}`,
			setupMock: func(m *MockService) {
				m.On("GenerateRecurring", mock.Anything, mock.Anything).
					Return(nil, models.NewValidationError("custom recurrence requires exactly one of step_months or step_days"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `custom recurrence requires exactly one of step_months or step_days`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/obligations/recurring", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
