package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// ListOverdueReminders возвращает получателей напоминаний по переданным рассрочкам.
// Строки, которые успели оплатить или у спортсмена нет email, пропускаются.
func (s *Storage) ListOverdueReminders(ctx context.Context, ids []int64) ([]models.OverdueReminder, error) {
	const op = "storage.ListOverdueReminders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT fi.id, a.first_name || ' ' || a.last_name, a.email, fp.name, fi.amount, fi.due_date
			  FROM fee_installments fi
			  JOIN athletes a ON a.id = fi.athlete_id
			  JOIN fee_plans fp ON fp.id = fi.fee_plan_id
			  WHERE fi.id = ANY($1) AND fi.status = 'overdue' AND fi.paid_at IS NULL AND a.email <> ''
			  ORDER BY fi.id`
	rows, err := s.DB.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var res []models.OverdueReminder
	for rows.Next() {
		var r models.OverdueReminder
		if err := rows.Scan(&r.InstallmentID, &r.AthleteName, &r.Email, &r.PlanName, &r.Amount, &r.DueDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
