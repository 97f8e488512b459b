// Package models содержит доменные структуры биллинга клуба: планы взносов,
// шаблонные и персональные рассрочки, прочие обязательства клуба,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout — формат дат во всех запросах и ответах API.
const DateLayout = "2006-01-02"

// FeePlan описывает план взносов команды: вступительный взнос, страховка
// и ежемесячный взнос за MonthsCount месяцев, разбитые на InstallmentsCount платежей.
// TotalAmount всегда пересчитывается из составляющих и не редактируется напрямую.
type FeePlan struct {
	ID                int64                   `json:"id"`
	TeamID            int64                   `json:"team_id"`
	Name              string                  `json:"name"`
	EnrollmentFee     decimal.Decimal         `json:"enrollment_fee"`
	InsuranceFee      decimal.Decimal         `json:"insurance_fee"`
	MonthlyFee        decimal.Decimal         `json:"monthly_fee"`
	MonthsCount       int                     `json:"months_count"`
	InstallmentsCount int                     `json:"installments_count"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	Schedule          []PredefinedInstallment `json:"schedule,omitempty"`
}

// PredefinedInstallment — шаблонная строка графика платежей плана.
type PredefinedInstallment struct {
	ID                int64           `json:"id"`
	FeePlanID         int64           `json:"fee_plan_id"`
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
}

// ScheduleWarning сообщает, что сумма шаблонного графика не совпадает с итогом плана.
// Это предупреждение, а не ошибка: такой график сохраняется.
type ScheduleWarning struct {
	Message        string          `json:"message"`
	ScheduledTotal decimal.Decimal `json:"scheduled_total"`
	PlanTotal      decimal.Decimal `json:"plan_total"`
}

// DummyFeePlan используется для приёма данных плана из JSON-запроса.
// Если RegenerateSchedule установлен, шаблонный график пересоздаётся начиная с FirstDueDate.
type DummyFeePlan struct {
	TeamID             int64           `json:"team_id" validate:"required,gt=0"`
	Name               string          `json:"name" validate:"required"`
	EnrollmentFee      decimal.Decimal `json:"enrollment_fee"`
	InsuranceFee       decimal.Decimal `json:"insurance_fee"`
	MonthlyFee         decimal.Decimal `json:"monthly_fee"`
	MonthsCount        int             `json:"months_count" validate:"gte=0"`
	InstallmentsCount  int             `json:"installments_count" validate:"required,gt=0"`
	RegenerateSchedule bool            `json:"regenerate_schedule"`
	FirstDueDate       string          `json:"first_due_date,omitempty"`
}

// DummyScheduleItem — одна строка графика в JSON-запросе.
type DummyScheduleItem struct {
	InstallmentNumber int             `json:"installment_number" validate:"required,gt=0"`
	DueDate           string          `json:"due_date" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
}

// DummySchedule — тело запроса на замену шаблонного графика плана.
type DummySchedule struct {
	Items []DummyScheduleItem `json:"items" validate:"required,min=1,dive"`
}
