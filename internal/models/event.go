package models

import "time"

// InstallmentsGeneratedEvent публикуется после генерации рассрочек по плану.
type InstallmentsGeneratedEvent struct {
	RunID          string `json:"run_id"`
	FeePlanID      int64  `json:"fee_plan_id"`
	TeamID         int64  `json:"team_id"`
	Created        int    `json:"created"`
	AlreadyExisted int    `json:"already_existed"`
	Failed         int    `json:"failed"`
}

// InstallmentsOverdueEvent перечисляет рассрочки, ставшие просроченными за прогон пересчёта.
type InstallmentsOverdueEvent struct {
	RunID          string    `json:"run_id"`
	InstallmentIDs []int64   `json:"installment_ids"`
	Day            time.Time `json:"day"`
}

// PaymentsRecordedEvent перечисляет записи, реально отмеченные оплаченными.
type PaymentsRecordedEvent struct {
	Kind   string    `json:"kind"`
	IDs    []int64   `json:"ids"`
	PaidAt time.Time `json:"paid_at"`
	Method string    `json:"method,omitempty"`
}
