package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Предустановленные диапазоны дат платежа, вычисляемые от текущего дня.
const (
	PresetToday      = "today"
	PresetNext7Days  = "next-7-days"
	PresetNext30Days = "next-30-days"
)

// InstallmentFilter — общий фильтр для списка рассрочек и разбивки по статусам.
// Оба запроса строятся одним предикатом, поэтому их итоги всегда совпадают.
type InstallmentFilter struct {
	TeamIDs    []int64
	FeePlanIDs []int64
	Statuses   []InstallmentStatus
	DueFrom    *time.Time
	DueTo      *time.Time
	Search     string
}

// MaxPage — наибольший номер страницы; дальше смещение теряет смысл и может переполниться.
const MaxPage = 1_000_000

// Page задаёт пагинацию, нумерация страниц с 1.
type Page struct {
	Page     int
	PageSize int
}

// Offset возвращает смещение первой строки страницы.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// InstallmentQuery — параметры списка до применения пресетов.
type InstallmentQuery struct {
	Filter InstallmentFilter
	Preset string
	Page   Page
}

// InstallmentPage — страница списка и общее число строк по фильтру.
type InstallmentPage struct {
	Rows     []InstallmentRow `json:"rows"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// StatusTotals — количество и суммы по одному статусу.
type StatusTotals struct {
	Status InstallmentStatus `json:"status"`
	Count  int               `json:"count"`
	Amount decimal.Decimal   `json:"amount"`
	Paid   decimal.Decimal   `json:"paid"`
}

// StatusBreakdown — разбивка всех строк фильтра по статусам (без пагинации).
type StatusBreakdown struct {
	ByStatus    []StatusTotals  `json:"by_status"`
	TotalCount  int             `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}
