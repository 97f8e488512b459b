package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// CreateFeePlan вставляет план и, если schedule не nil, его шаблонный график в одной транзакции.
func (s *Storage) CreateFeePlan(ctx context.Context, plan models.FeePlan, schedule []models.PredefinedInstallment) (int64, error) {
	const op = "storage.CreateFeePlan"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var newID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO fee_plans (team_id, name, enrollment_fee, insurance_fee, monthly_fee,
				      months_count, installments_count, total_amount)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				  RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			plan.TeamID, plan.Name, plan.EnrollmentFee, plan.InsuranceFee, plan.MonthlyFee,
			plan.MonthsCount, plan.InstallmentsCount, plan.TotalAmount).Scan(&newID); err != nil {
			return err
		}
		if schedule == nil {
			return nil
		}
		return replaceSchedule(ctx, tx, newID, schedule)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%s: team %d: %w", op, plan.TeamID, models.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateFeePlan обновляет поля плана и, если schedule не nil, заменяет его шаблонный график.
func (s *Storage) UpdateFeePlan(ctx context.Context, plan models.FeePlan, schedule []models.PredefinedInstallment) error {
	const op = "storage.UpdateFeePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE fee_plans
				  SET team_id = $1, name = $2, enrollment_fee = $3, insurance_fee = $4, monthly_fee = $5,
				      months_count = $6, installments_count = $7, total_amount = $8, updated_at = NOW()
				  WHERE id = $9`
		res, err := tx.ExecContext(ctx, query,
			plan.TeamID, plan.Name, plan.EnrollmentFee, plan.InsuranceFee, plan.MonthlyFee,
			plan.MonthsCount, plan.InstallmentsCount, plan.TotalAmount, plan.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrNotFound
		}
		if schedule != nil {
			return replaceSchedule(ctx, tx, plan.ID, schedule)
		}

		// Сохранённый график не может выходить за новое число рассрочек.
		var outOfRange bool
		err = tx.QueryRowContext(ctx, `SELECT EXISTS (
				SELECT 1 FROM predefined_installments WHERE fee_plan_id = $1 AND installment_number > $2
			)`, plan.ID, plan.InstallmentsCount).Scan(&outOfRange)
		if err != nil {
			return err
		}
		if outOfRange {
			return models.NewValidationError(fmt.Sprintf(
				"stored schedule has installments above installments_count %d", plan.InstallmentsCount))
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: team %d: %w", op, plan.TeamID, models.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadFeePlan возвращает план вместе с шаблонным графиком, упорядоченным по номеру.
func (s *Storage) ReadFeePlan(ctx context.Context, id int64) (*models.FeePlan, error) {
	const op = "storage.ReadFeePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, team_id, name, enrollment_fee, insurance_fee, monthly_fee,
			      months_count, installments_count, total_amount, created_at, updated_at
			  FROM fee_plans WHERE id = $1`
	var p models.FeePlan
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.TeamID, &p.Name,
		&p.EnrollmentFee, &p.InsuranceFee, &p.MonthlyFee, &p.MonthsCount, &p.InstallmentsCount,
		&p.TotalAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: fee plan %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Schedule, err = s.ListSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSchedule возвращает шаблонный график плана по возрастанию номера рассрочки.
func (s *Storage) ListSchedule(ctx context.Context, planID int64) ([]models.PredefinedInstallment, error) {
	const op = "storage.ListSchedule"

	query := `SELECT id, fee_plan_id, installment_number, due_date, amount
			  FROM predefined_installments
			  WHERE fee_plan_id = $1
			  ORDER BY installment_number`
	rows, err := s.DB.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.PredefinedInstallment{}
	for rows.Next() {
		var it models.PredefinedInstallment
		if err := rows.Scan(&it.ID, &it.FeePlanID, &it.InstallmentNumber, &it.DueDate, &it.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ReplaceSchedule заменяет шаблонный график плана целиком.
func (s *Storage) ReplaceSchedule(ctx context.Context, planID int64, items []models.PredefinedInstallment) error {
	const op = "storage.ReplaceSchedule"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceSchedule(ctx, tx, planID, items)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: fee plan %d: %w", op, planID, models.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func replaceSchedule(ctx context.Context, tx *sql.Tx, planID int64, items []models.PredefinedInstallment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM predefined_installments WHERE fee_plan_id = $1`, planID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO predefined_installments
			(fee_plan_id, installment_number, due_date, amount)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, planID, it.InstallmentNumber, it.DueDate, it.Amount); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFeePlan удаляет план, его график и неоплаченные рассрочки.
// Если хотя бы одна рассрочка плана оплачена полностью или частично,
// возвращает ErrConflict и ничего не удаляет.
// Рассрочки плана блокируются до проверки, поэтому параллельная оплата дождётся
// окончания удаления и увидит, что строки больше нет.
func (s *Storage) DeleteFeePlan(ctx context.Context, id int64) error {
	const op = "storage.DeleteFeePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var planID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM fee_plans WHERE id = $1 FOR UPDATE`, id).Scan(&planID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT paid_at IS NOT NULL OR status = 'partially_paid' FROM fee_installments WHERE fee_plan_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		paid := false
		for rows.Next() {
			var isPaid bool
			if err := rows.Scan(&isPaid); err != nil {
				_ = rows.Close()
				return err
			}
			paid = paid || isPaid
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return err
		}
		_ = rows.Close()
		if paid {
			return models.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM fee_plans WHERE id = $1`, id)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("%s: fee plan %d has paid or partially paid installments: %w", op, id, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
