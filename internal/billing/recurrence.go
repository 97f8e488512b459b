package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/lib/month"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Recurrence — явный тип повторения расхода.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "monthly"
	RecurrenceQuarterly Recurrence = "quarterly"
	RecurrenceYearly    Recurrence = "yearly"
	RecurrenceWeekly    Recurrence = "weekly"
	RecurrenceCustom    Recurrence = "custom"
)

// Rule описывает шаг и фиксированное число повторений.
// Горизонт всегда ограничен: бесконечных повторений нет.
type Rule struct {
	Kind       Recurrence
	Count      int
	StepMonths int
	StepDays   int
}

// Пределы правила custom: не больше десяти лет ежемесячных дат и шаг не длиннее десяти лет.
const (
	MaxCustomCount      = 120
	MaxCustomStepMonths = 120
	MaxCustomStepDays   = 366
)

var presetRules = map[Recurrence]Rule{
	RecurrenceMonthly:   {Kind: RecurrenceMonthly, Count: 12, StepMonths: 1},
	RecurrenceQuarterly: {Kind: RecurrenceQuarterly, Count: 4, StepMonths: 3},
	RecurrenceYearly:    {Kind: RecurrenceYearly, Count: 3, StepMonths: 12},
	RecurrenceWeekly:    {Kind: RecurrenceWeekly, Count: 12, StepDays: 7},
}

// keywordTable — таблица совместимости для старых записей со свободным текстом.
// Порядок важен: побеждает первое совпадение.
var keywordTable = []struct {
	keywords []string
	kind     Recurrence
}{
	{keywords: []string{"mensile", "monthly"}, kind: RecurrenceMonthly},
	{keywords: []string{"trimestrale", "quarterly"}, kind: RecurrenceQuarterly},
	{keywords: []string{"annuale", "yearly"}, kind: RecurrenceYearly},
	{keywords: []string{"settimanale", "weekly"}, kind: RecurrenceWeekly},
}

// ParsePattern сопоставляет свободный текст с типом повторения по вхождению
// ключевых слов без учёта регистра. Если ничего не найдено — monthly.
func ParsePattern(pattern string) Recurrence {
	p := strings.ToLower(pattern)
	for _, row := range keywordTable {
		for _, kw := range row.keywords {
			if strings.Contains(p, kw) {
				return row.kind
			}
		}
	}
	return RecurrenceMonthly
}

// RuleFor возвращает правило для предустановленного типа повторения.
func RuleFor(kind Recurrence) (Rule, error) {
	r, ok := presetRules[kind]
	if !ok {
		return Rule{}, models.NewValidationError(fmt.Sprintf("unknown recurrence %q", kind))
	}
	return r, nil
}

// CustomRule собирает правило custom и проверяет его параметры.
func CustomRule(count, stepMonths, stepDays int) (Rule, error) {
	if count < 1 {
		return Rule{}, models.NewValidationError("custom recurrence requires count >= 1")
	}
	if (stepMonths > 0) == (stepDays > 0) {
		return Rule{}, models.NewValidationError("custom recurrence requires exactly one of step_months or step_days")
	}
	if count > MaxCustomCount {
		return Rule{}, models.NewValidationError(fmt.Sprintf("custom recurrence count must not exceed %d", MaxCustomCount))
	}
	if stepMonths > MaxCustomStepMonths || stepDays > MaxCustomStepDays {
		return Rule{}, models.NewValidationError(fmt.Sprintf(
			"custom recurrence step must not exceed %d months or %d days", MaxCustomStepMonths, MaxCustomStepDays))
	}
	return Rule{Kind: RecurrenceCustom, Count: count, StepMonths: stepMonths, StepDays: stepDays}, nil
}

// Schedule возвращает Count дат, начиная с самой start.
// Каждая дата вычисляется от start, поэтому прижатие к концу месяца не накапливается.
func Schedule(rule Rule, start time.Time) []time.Time {
	dates := make([]time.Time, 0, rule.Count)
	for i := 0; i < rule.Count; i++ {
		switch {
		case rule.StepMonths > 0:
			dates = append(dates, month.AddMonths(start, i*rule.StepMonths))
		default:
			dates = append(dates, start.AddDate(0, 0, i*rule.StepDays))
		}
	}
	return dates
}
