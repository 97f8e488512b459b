package repository

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// installmentSource — общий FROM для списка рассрочек и разбивки по статусам.
const installmentSource = `FROM fee_installments fi
	JOIN fee_plans fp ON fp.id = fi.fee_plan_id
	JOIN athletes a ON a.id = fi.athlete_id`

// installmentWhere строит единый предикат фильтра рассрочек.
// Список, счётчик и разбивка используют только его, чтобы их итоги не расходились.
func installmentWhere(f models.InstallmentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.TeamIDs) > 0 {
		conds = append(conds, "fp.team_id = ANY("+next(f.TeamIDs)+")")
	}
	if len(f.FeePlanIDs) > 0 {
		conds = append(conds, "fi.fee_plan_id = ANY("+next(f.FeePlanIDs)+")")
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		conds = append(conds, "fi.status = ANY("+next(statuses)+")")
	}
	if f.DueFrom != nil {
		conds = append(conds, "fi.due_date >= "+next(*f.DueFrom))
	}
	if f.DueTo != nil {
		conds = append(conds, "fi.due_date <= "+next(*f.DueTo))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := next("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf(
			"((a.first_name || ' ' || a.last_name) ILIKE %s OR (a.last_name || ' ' || a.first_name) ILIKE %s OR a.email ILIKE %s)",
			p, p, p))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
