package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// InsertInstallments вставляет рассрочки одного спортсмена в одной транзакции.
// Уже существующие строки (fee_plan_id, athlete_id, installment_number) не трогаются,
// оплачены они или нет. Возвращает количество реально созданных строк.
func (s *Storage) InsertInstallments(ctx context.Context, rows []models.FeeInstallment) (int, error) {
	const op = "storage.InsertInstallments"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	created := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO fee_installments
				(fee_plan_id, athlete_id, installment_number, due_date, amount, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (fee_plan_id, athlete_id, installment_number) DO NOTHING`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, r := range rows {
			res, err := stmt.ExecContext(ctx, r.FeePlanID, r.AthleteID, r.InstallmentNumber,
				r.DueDate, r.Amount, string(r.Status))
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListRecalcCandidates возвращает страницу неоплаченных рассрочек без ручного статуса
// с id > afterID, упорядоченных по id.
func (s *Storage) ListRecalcCandidates(ctx context.Context, scope models.RecalcScope, afterID int64, limit int) ([]models.RecalcCandidate, error) {
	const op = "storage.ListRecalcCandidates"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT fi.id, fi.due_date, fi.status
			  FROM fee_installments fi
			  JOIN fee_plans fp ON fp.id = fi.fee_plan_id
			  WHERE fi.paid_at IS NULL
			    AND fi.manual_override = false
			    AND fi.status <> 'partially_paid'
			    AND fi.id > $1
			    AND ($2::bigint IS NULL OR fp.team_id = $2)
			    AND ($3::bigint IS NULL OR fi.fee_plan_id = $3)
			  ORDER BY fi.id
			  LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, afterID, scope.TeamID, scope.FeePlanID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.RecalcCandidate
	for rows.Next() {
		var c models.RecalcCandidate
		var status string
		if err := rows.Scan(&c.ID, &c.DueDate, &status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Status = models.InstallmentStatus(status)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApplyStatusChanges записывает новые статусы одной страницы пересчёта в одной транзакции.
// Каждая запись условна: строка должна оставаться неоплаченной и без ручного статуса
// в момент записи. Возвращает id строк, которые действительно изменились.
func (s *Storage) ApplyStatusChanges(ctx context.Context, changes []models.StatusChange) ([]int64, error) {
	const op = "storage.ApplyStatusChanges"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var applied []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE fee_installments
			SET status = $1, updated_at = NOW()
			WHERE id = $2
			  AND paid_at IS NULL
			  AND manual_override = false
			  AND status <> $1`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, c := range changes {
			res, err := stmt.ExecContext(ctx, string(c.Status), c.ID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 1 {
				applied = append(applied, c.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return applied, nil
}

// MarkInstallmentPaid отмечает рассрочку оплаченной, если она ещё не оплачена.
func (s *Storage) MarkInstallmentPaid(ctx context.Context, id int64, paidAt time.Time, method string) (models.PaymentOutcome, error) {
	const op = "storage.MarkInstallmentPaid"
	if err := checkCtx(ctx, op); err != nil {
		return models.OutcomeFailed, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE fee_installments
		SET status = 'paid', paid_at = $2, payment_method = $3, updated_at = NOW()
		WHERE id = $1 AND paid_at IS NULL`, id, paidAt, method)
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		return models.OutcomeUpdated, nil
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM fee_installments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.OutcomeFailed, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return models.OutcomeAlreadyPaid, nil
	}
	return models.OutcomeNotFound, nil
}

// ReadInstallment возвращает рассрочку по id.
func (s *Storage) ReadInstallment(ctx context.Context, id int64) (*models.FeeInstallment, error) {
	const op = "storage.ReadInstallment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, fee_plan_id, athlete_id, installment_number, due_date, amount,
			      status, paid_at, payment_method, manual_override, notes
			  FROM fee_installments WHERE id = $1`
	var (
		fi     models.FeeInstallment
		status string
	)
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&fi.ID, &fi.FeePlanID, &fi.AthleteID,
		&fi.InstallmentNumber, &fi.DueDate, &fi.Amount, &status, &fi.PaidAt, &fi.PaymentMethod,
		&fi.ManualOverride, &fi.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: installment %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fi.Status = models.InstallmentStatus(status)
	return &fi, nil
}

// SetInstallmentStatus вручную задаёт статус рассрочки и включает manual_override.
// paidAt должен быть задан тогда и только тогда, когда статус paid.
func (s *Storage) SetInstallmentStatus(ctx context.Context, id int64, status models.InstallmentStatus, paidAt *time.Time, notes string) error {
	const op = "storage.SetInstallmentStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE fee_installments
		SET status = $2, paid_at = $3, notes = $4, manual_override = true, updated_at = NOW()
		WHERE id = $1`, id, string(status), paidAt, notes)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%s: %w", op, models.NewValidationError("status and paid_at are inconsistent"))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: installment %d: %w", op, id, models.ErrNotFound)
	}
	return nil
}

// ClearOverride снимает ручной статус. Оплаченная строка остаётся paid,
// иначе записывается переданный вычисленный статус.
func (s *Storage) ClearOverride(ctx context.Context, id int64, derived models.InstallmentStatus) error {
	const op = "storage.ClearOverride"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE fee_installments
		SET manual_override = false,
		    status = CASE WHEN paid_at IS NOT NULL THEN 'paid' ELSE $2::text END,
		    updated_at = NOW()
		WHERE id = $1`, id, string(derived))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: installment %d: %w", op, id, models.ErrNotFound)
	}
	return nil
}

// ListInstallments возвращает страницу рассрочек по фильтру, упорядоченную по дате платежа.
func (s *Storage) ListInstallments(ctx context.Context, f models.InstallmentFilter, limit, offset int) ([]models.InstallmentRow, error) {
	const op = "storage.ListInstallments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	where, args := installmentWhere(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT fi.id, fi.fee_plan_id, fi.athlete_id, fi.installment_number, fi.due_date,
			fi.amount, fi.status, fi.paid_at, fi.payment_method, fi.manual_override, fi.notes,
			fp.team_id, fp.name, a.first_name || ' ' || a.last_name, a.email
		%s%s
		ORDER BY fi.due_date, fi.id
		LIMIT $%d OFFSET $%d`, installmentSource, where, len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.InstallmentRow{}
	for rows.Next() {
		var (
			r      models.InstallmentRow
			status string
		)
		if err := rows.Scan(&r.ID, &r.FeePlanID, &r.AthleteID, &r.InstallmentNumber, &r.DueDate,
			&r.Amount, &status, &r.PaidAt, &r.PaymentMethod, &r.ManualOverride, &r.Notes,
			&r.TeamID, &r.PlanName, &r.AthleteName, &r.AthleteEmail); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.Status = models.InstallmentStatus(status)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountInstallments возвращает число строк по фильтру без учёта пагинации.
func (s *Storage) CountInstallments(ctx context.Context, f models.InstallmentFilter) (int, error) {
	const op = "storage.CountInstallments"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	where, args := installmentWhere(f)
	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) "+installmentSource+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// StatusBreakdown группирует все строки фильтра по статусу: количество,
// сумма к оплате и оплаченная сумма.
func (s *Storage) StatusBreakdown(ctx context.Context, f models.InstallmentFilter) ([]models.StatusTotals, error) {
	const op = "storage.StatusBreakdown"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	where, args := installmentWhere(f)
	query := fmt.Sprintf(`SELECT fi.status, COUNT(*),
			COALESCE(SUM(fi.amount), 0),
			COALESCE(SUM(fi.amount) FILTER (WHERE fi.paid_at IS NOT NULL), 0)
		%s%s
		GROUP BY fi.status`, installmentSource, where)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.StatusTotals
	for rows.Next() {
		var (
			t      models.StatusTotals
			status string
			amount decimal.Decimal
			paid   decimal.Decimal
		)
		if err := rows.Scan(&status, &t.Count, &amount, &paid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Status = models.InstallmentStatus(status)
		t.Amount = amount
		t.Paid = paid
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
