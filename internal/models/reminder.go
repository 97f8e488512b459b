package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OverdueReminder — данные письма спортсмену о просроченной рассрочке.
type OverdueReminder struct {
	InstallmentID int64           `json:"installment_id"`
	AthleteName   string          `json:"athlete_name"`
	Email         string          `json:"email"`
	PlanName      string          `json:"plan_name"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
}
