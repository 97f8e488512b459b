package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationCategory — вид прочего расхода клуба.
type ObligationCategory string

const (
	CategoryGeneralCost  ObligationCategory = "general_cost"
	CategoryCoachPayment ObligationCategory = "coach_payment"
)

// Frequency — разовый или повторяющийся расход.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one_time"
	FrequencyRecurring Frequency = "recurring"
)

// ObligationStatus — статус прочего обязательства.
type ObligationStatus string

const (
	ObligationToPay ObligationStatus = "to_pay"
	ObligationPaid  ObligationStatus = "paid"
)

// GeneralObligation — расход клуба, не связанный с членскими взносами.
// Повторяющиеся расходы разворачиваются заранее в отдельные строки с одинаковыми
// описанием, суммой и ссылками.
type GeneralObligation struct {
	ID                int64              `json:"id"`
	Category          ObligationCategory `json:"category"`
	Description       string             `json:"description"`
	Amount            decimal.Decimal    `json:"amount"`
	Frequency         Frequency          `json:"frequency"`
	RecurrencePattern string             `json:"recurrence_pattern,omitempty"`
	Status            ObligationStatus   `json:"status"`
	DueDate           time.Time          `json:"due_date"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
	GymID             *int64             `json:"gym_id,omitempty"`
	ActivityID        *int64             `json:"activity_id,omitempty"`
	TeamID            *int64             `json:"team_id,omitempty"`
	CoachID           *int64             `json:"coach_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// ObligationFilter — фильтр списка обязательств.
type ObligationFilter struct {
	Category ObligationCategory
	Status   ObligationStatus
	TeamID   *int64
	DueFrom  *time.Time
	DueTo    *time.Time
	Limit    int
	Offset   int
}

// DummyObligation — тело запроса на создание разового обязательства.
type DummyObligation struct {
	Category    string          `json:"category" validate:"required,oneof=general_cost coach_payment"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date" validate:"required"`
	GymID       *int64          `json:"gym_id,omitempty"`
	ActivityID  *int64          `json:"activity_id,omitempty"`
	TeamID      *int64          `json:"team_id,omitempty"`
	CoachID     *int64          `json:"coach_id,omitempty"`
}

// DummyRecurringObligation — тело запроса на разворачивание повторяющегося расхода.
// Recurrence имеет приоритет; Pattern — свободный текст старого формата.
type DummyRecurringObligation struct {
	Category    string          `json:"category" validate:"required,oneof=general_cost coach_payment"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	StartDate   string          `json:"start_date" validate:"required"`
	Recurrence  string          `json:"recurrence,omitempty" validate:"omitempty,oneof=monthly quarterly yearly weekly custom"`
	Pattern     string          `json:"pattern,omitempty"`
	Count       int             `json:"count,omitempty" validate:"gte=0,lte=120"`
	StepMonths  int             `json:"step_months,omitempty" validate:"gte=0,lte=120"`
	StepDays    int             `json:"step_days,omitempty" validate:"gte=0,lte=366"`
	GymID       *int64          `json:"gym_id,omitempty"`
	ActivityID  *int64          `json:"activity_id,omitempty"`
	TeamID      *int64          `json:"team_id,omitempty"`
	CoachID     *int64          `json:"coach_id,omitempty"`
}

// DummyObligationStatus — тело запроса смены статуса обязательства.
type DummyObligationStatus struct {
	Status string `json:"status" validate:"required,oneof=to_pay paid"`
}

// DummyObligationsPaid — тело запроса пакетной отметки оплаты обязательств.
type DummyObligationsPaid struct {
	IDs         []int64 `json:"ids" validate:"required,min=1"`
	PaymentDate string  `json:"payment_date" validate:"required"`
}
