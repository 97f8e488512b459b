// Package billing содержит чистую логику движка взносов: вычисление статуса
// рассрочки по календарю, итог плана, шаблонный график и даты повторяющихся расходов.
// Пакет не выполняет ввода-вывода и не читает системное время.
package billing

import (
	"time"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// DefaultDueSoonWindow — окно «скоро к оплате» по умолчанию.
const DefaultDueSoonWindow = 7 * 24 * time.Hour

// Resolve вычисляет статус рассрочки по дате платежа, моменту оплаты и текущему времени.
//
// Оплаченная рассрочка всегда paid. Иначе при now >= due — overdue,
// при due - now <= window — due_soon, в остальных случаях not_due.
// Статус partially_paid этой функцией никогда не возвращается.
func Resolve(due time.Time, paidAt *time.Time, now time.Time, window time.Duration) models.InstallmentStatus {
	if paidAt != nil {
		return models.StatusPaid
	}
	if !now.Before(due) {
		return models.StatusOverdue
	}
	if due.Sub(now) <= window {
		return models.StatusDueSoon
	}
	return models.StatusNotDue
}
