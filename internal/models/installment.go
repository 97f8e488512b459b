package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus — статус жизненного цикла персональной рассрочки.
type InstallmentStatus string

const (
	StatusNotDue        InstallmentStatus = "not_due"
	StatusDueSoon       InstallmentStatus = "due_soon"
	StatusOverdue       InstallmentStatus = "overdue"
	StatusPaid          InstallmentStatus = "paid"
	StatusPartiallyPaid InstallmentStatus = "partially_paid"
)

// InstallmentStatuses перечисляет все допустимые статусы в порядке вывода отчётов.
var InstallmentStatuses = []InstallmentStatus{
	StatusNotDue, StatusDueSoon, StatusOverdue, StatusPartiallyPaid, StatusPaid,
}

// Valid сообщает, является ли значение известным статусом.
func (s InstallmentStatus) Valid() bool {
	for _, st := range InstallmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// FeeInstallment — шаблонная рассрочка, созданная для конкретного спортсмена.
// Тройка (FeePlanID, AthleteID, InstallmentNumber) уникальна.
// При ManualOverride пересчёт статусов строку не трогает.
type FeeInstallment struct {
	ID                int64             `json:"id"`
	FeePlanID         int64             `json:"fee_plan_id"`
	AthleteID         int64             `json:"athlete_id"`
	InstallmentNumber int               `json:"installment_number"`
	DueDate           time.Time         `json:"due_date"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            InstallmentStatus `json:"status"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	PaymentMethod     string            `json:"payment_method,omitempty"`
	ManualOverride    bool              `json:"manual_override"`
	Notes             string            `json:"notes,omitempty"`
}

// InstallmentRow — строка списка рассрочек вместе с данными спортсмена и плана.
type InstallmentRow struct {
	FeeInstallment
	TeamID       int64  `json:"team_id"`
	PlanName     string `json:"plan_name"`
	AthleteName  string `json:"athlete_name"`
	AthleteEmail string `json:"athlete_email"`
}

// GenerationFailure описывает спортсмена, для которого генерация не удалась.
type GenerationFailure struct {
	AthleteID int64  `json:"athlete_id"`
	Error     string `json:"error"`
}

// GenerationResult — итог генерации рассрочек по плану.
type GenerationResult struct {
	RunID          string              `json:"run_id"`
	Created        int                 `json:"created"`
	AlreadyExisted int                 `json:"already_existed"`
	Failures       []GenerationFailure `json:"failures"`
}

// RecalcScope ограничивает пересчёт командой и/или планом. Пустой scope — все рассрочки.
type RecalcScope struct {
	TeamID    *int64 `json:"team_id,omitempty"`
	FeePlanID *int64 `json:"fee_plan_id,omitempty"`
}

// RecalcCandidate — неоплаченная рассрочка, прочитанная для пересчёта.
type RecalcCandidate struct {
	ID      int64
	DueDate time.Time
	Status  InstallmentStatus
}

// StatusChange — новое значение статуса для условной записи.
type StatusChange struct {
	ID     int64
	Status InstallmentStatus
}

// RecalcResult — итог пересчёта статусов.
// SkippedPaid считает строки, которые между чтением и записью были оплачены
// или получили ручной статус. Failed — строки страниц, запись которых не удалась.
type RecalcResult struct {
	RunID         string  `json:"run_id"`
	Scanned       int     `json:"scanned"`
	Updated       int     `json:"updated"`
	Unchanged     int     `json:"unchanged"`
	SkippedPaid   int     `json:"skipped_paid"`
	Failed        int     `json:"failed"`
	BecameOverdue []int64 `json:"became_overdue,omitempty"`
}

// PaymentOutcome — результат отметки оплаты для одного идентификатора.
type PaymentOutcome string

const (
	OutcomeUpdated        PaymentOutcome = "updated"
	OutcomeAlreadyPaid    PaymentOutcome = "already_paid"
	OutcomeNotFound       PaymentOutcome = "not_found"
	OutcomeFailed         PaymentOutcome = "failed"
	OutcomeAlreadyInState PaymentOutcome = "already_in_state"
)

// PaymentResult — результат обработки одного идентификатора в пакетной операции.
type PaymentResult struct {
	ID      int64          `json:"id"`
	Outcome PaymentOutcome `json:"outcome"`
	Error   string         `json:"error,omitempty"`
}

// DummyMarkPaid — тело запроса отметки оплаты.
type DummyMarkPaid struct {
	IDs         []int64 `json:"ids" validate:"required,min=1"`
	PaymentDate string  `json:"payment_date" validate:"required"`
	Method      string  `json:"method" validate:"required"`
}

// DummyInstallmentStatus — тело запроса ручного изменения статуса рассрочки.
type DummyInstallmentStatus struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}
