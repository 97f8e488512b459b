package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/club-billing/internal/lib/month"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// PlanTotal возвращает enrollment + insurance + monthly * months.
func PlanTotal(enrollment, insurance, monthly decimal.Decimal, months int) decimal.Decimal {
	return enrollment.Add(insurance).Add(monthly.Mul(decimal.NewFromInt(int64(months))))
}

// IsCents сообщает, что сумма имеет не больше двух знаков после запятой.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ValidatePlan проверяет составляющие плана. Взносы не могут быть отрицательными,
// а итог плана должен быть положительным.
func ValidatePlan(p models.FeePlan) error {
	if p.TeamID <= 0 {
		return models.NewValidationError("team_id must be positive")
	}
	if p.Name == "" {
		return models.NewValidationError("name is required")
	}
	fees := map[string]decimal.Decimal{
		"enrollment_fee": p.EnrollmentFee,
		"insurance_fee":  p.InsuranceFee,
		"monthly_fee":    p.MonthlyFee,
	}
	for name, v := range fees {
		if v.IsNegative() {
			return models.NewValidationError(fmt.Sprintf("%s must not be negative", name))
		}
		if !IsCents(v) {
			return models.NewValidationError(fmt.Sprintf("%s must have at most two decimals", name))
		}
	}
	if p.MonthsCount < 0 {
		return models.NewValidationError("months_count must not be negative")
	}
	if p.InstallmentsCount < 1 {
		return models.NewValidationError("installments_count must be at least 1")
	}
	if !PlanTotal(p.EnrollmentFee, p.InsuranceFee, p.MonthlyFee, p.MonthsCount).IsPositive() {
		return models.NewValidationError("total amount must be positive")
	}
	return nil
}

// DefaultSchedule делит итог плана на installmentsCount частей, округлённых вниз до копеек;
// остаток добавляется к последней части. Даты идут от firstDue с шагом
// max(1, monthsCount/installmentsCount) месяцев.
func DefaultSchedule(total decimal.Decimal, installmentsCount, monthsCount int, firstDue time.Time) []models.PredefinedInstallment {
	if installmentsCount < 1 {
		return nil
	}
	step := monthsCount / installmentsCount
	if step < 1 {
		step = 1
	}

	share := total.Div(decimal.NewFromInt(int64(installmentsCount))).RoundDown(2)
	rest := total.Sub(share.Mul(decimal.NewFromInt(int64(installmentsCount - 1))))

	items := make([]models.PredefinedInstallment, 0, installmentsCount)
	for i := 0; i < installmentsCount; i++ {
		amount := share
		if i == installmentsCount-1 {
			amount = rest
		}
		items = append(items, models.PredefinedInstallment{
			InstallmentNumber: i + 1,
			DueDate:           month.AddMonths(firstDue, i*step),
			Amount:            amount,
		})
	}
	return items
}

// ValidateSchedule проверяет строки шаблонного графика: номера в диапазоне
// 1..installmentsCount без повторов, суммы положительные и в копейках.
func ValidateSchedule(items []models.PredefinedInstallment, installmentsCount int) error {
	if len(items) == 0 {
		return models.NewValidationError("schedule must contain at least one installment")
	}
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.InstallmentNumber < 1 || it.InstallmentNumber > installmentsCount {
			return models.NewValidationError(fmt.Sprintf(
				"installment_number %d is out of range 1..%d", it.InstallmentNumber, installmentsCount))
		}
		if _, ok := seen[it.InstallmentNumber]; ok {
			return models.NewValidationError(fmt.Sprintf("duplicate installment_number %d", it.InstallmentNumber))
		}
		seen[it.InstallmentNumber] = struct{}{}
		if !it.Amount.IsPositive() {
			return models.NewValidationError(fmt.Sprintf("installment %d: amount must be positive", it.InstallmentNumber))
		}
		if !IsCents(it.Amount) {
			return models.NewValidationError(fmt.Sprintf("installment %d: amount must have at most two decimals", it.InstallmentNumber))
		}
		if it.DueDate.IsZero() {
			return models.NewValidationError(fmt.Sprintf("installment %d: due_date is required", it.InstallmentNumber))
		}
	}
	return nil
}

// ScheduleSum возвращает сумму строк графика.
func ScheduleSum(items []models.PredefinedInstallment) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount)
	}
	return sum
}

// CheckScheduleTotal возвращает предупреждение, если сумма графика не равна итогу плана.
func CheckScheduleTotal(items []models.PredefinedInstallment, planTotal decimal.Decimal) *models.ScheduleWarning {
	sum := ScheduleSum(items)
	if sum.Equal(planTotal) {
		return nil
	}
	return &models.ScheduleWarning{
		Message:        fmt.Sprintf("schedule total %s differs from plan total %s", sum.StringFixed(2), planTotal.StringFixed(2)),
		ScheduledTotal: sum,
		PlanTotal:      planTotal,
	}
}
