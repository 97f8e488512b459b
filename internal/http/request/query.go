package request

import (
	"net/http"
	"strings"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// InstallmentQuery собирает фильтр списка рассрочек из строки запроса:
// team_id, fee_plan_id, status (списки), due_from, due_to, preset, q, page, page_size.
// Список и разбивка по статусам читают один и тот же набор параметров.
func InstallmentQuery(r *http.Request) (models.InstallmentQuery, error) {
	q := r.URL.Query()
	var out models.InstallmentQuery
	var err error

	if out.Filter.TeamIDs, err = Int64List(q, "team_id"); err != nil {
		return out, err
	}
	if out.Filter.FeePlanIDs, err = Int64List(q, "fee_plan_id"); err != nil {
		return out, err
	}
	for _, v := range q["status"] {
		for _, st := range strings.Split(v, ",") {
			if st = strings.TrimSpace(st); st != "" {
				out.Filter.Statuses = append(out.Filter.Statuses, models.InstallmentStatus(st))
			}
		}
	}
	if out.Filter.DueFrom, err = Date(q, "due_from"); err != nil {
		return out, err
	}
	if out.Filter.DueTo, err = Date(q, "due_to"); err != nil {
		return out, err
	}
	out.Filter.Search = strings.TrimSpace(q.Get("q"))
	out.Preset = strings.TrimSpace(q.Get("preset"))

	if out.Page.Page, err = Int(q, "page"); err != nil {
		return out, err
	}
	if out.Page.PageSize, err = Int(q, "page_size"); err != nil {
		return out, err
	}
	return out, nil
}

// ObligationFilter собирает фильтр списка обязательств: category, status, team_id,
// due_from, due_to, limit, offset.
func ObligationFilter(r *http.Request) (models.ObligationFilter, error) {
	q := r.URL.Query()
	f := models.ObligationFilter{
		Category: models.ObligationCategory(strings.TrimSpace(q.Get("category"))),
		Status:   models.ObligationStatus(strings.TrimSpace(q.Get("status"))),
	}
	var err error
	if f.TeamID, err = OptionalInt64(q, "team_id"); err != nil {
		return f, err
	}
	if f.DueFrom, err = Date(q, "due_from"); err != nil {
		return f, err
	}
	if f.DueTo, err = Date(q, "due_to"); err != nil {
		return f, err
	}
	if f.Limit, err = Int(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = Int(q, "offset"); err != nil {
		return f, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, models.NewValidationError("limit and offset must not be negative")
	}
	return f, nil
}
