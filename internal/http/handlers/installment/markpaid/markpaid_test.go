package markpaid

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MarkPaid(ctx context.Context, ids []int64, paymentDate time.Time, method string) ([]models.PaymentResult, error) {
	args := m.Called(ctx, ids, paymentDate, method)
	res, _ := args.Get(0).([]models.PaymentResult)
	return res, args.Error(1)
}

func TestMarkPaidHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "результат по каждому id",
			body: `{"ids":[1,2],"payment_date":"2025-10-03","method":"cash"}`,
			setupMock: func(m *MockService) {
				m.On("MarkPaid", mock.Anything, []int64{1, 2}, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC), "cash").
					Return([]models.PaymentResult{
						{ID: 1, Outcome: models.OutcomeUpdated},
						{ID: 2, Outcome: models.OutcomeNotFound},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[{"id":1,"outcome":"updated"},{"id":2,"outcome":"not_found"}]`,
		},
		{
			name:           "пустой список id",
			body:           `{"ids":[],"payment_date":"2025-10-03","method":"cash"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field IDs must have at least 1 element(s)`,
		},
		{
			name:           "некорректная дата",
			body:           `{"ids":[1],"payment_date":"03/10/2025","method":"cash"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `payment_date`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"ids":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/installments/mark-paid", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
