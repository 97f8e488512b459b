package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

const obligationColumns = `id, category, description, amount, frequency, recurrence_pattern, status,
	due_date, paid_at, gym_id, activity_id, team_id, coach_id, created_at`

// CreateObligations вставляет строки обязательств в одной транзакции:
// повторяющийся расход сохраняется либо целиком, либо никак.
func (s *Storage) CreateObligations(ctx context.Context, items []models.GeneralObligation) ([]int64, error) {
	const op = "storage.CreateObligations"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO general_obligations
				(category, description, amount, frequency, recurrence_pattern, status, due_date,
				 paid_at, gym_id, activity_id, team_id, coach_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, o := range items {
			var id int64
			if err := stmt.QueryRowContext(ctx, string(o.Category), o.Description, o.Amount,
				string(o.Frequency), o.RecurrencePattern, string(o.Status), o.DueDate, o.PaidAt,
				o.GymID, o.ActivityID, o.TeamID, o.CoachID).Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: team: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// ReadObligation возвращает обязательство по id.
func (s *Storage) ReadObligation(ctx context.Context, id int64) (*models.GeneralObligation, error) {
	const op = "storage.ReadObligation"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+obligationColumns+` FROM general_obligations WHERE id = $1`, id)
	o, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: obligation %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// SetObligationStatus переводит обязательство в status, только если оно ещё не в нём.
// paidAt записывается для paid и сбрасывается для to_pay.
func (s *Storage) SetObligationStatus(ctx context.Context, id int64, status models.ObligationStatus, paidAt *time.Time) (models.PaymentOutcome, error) {
	const op = "storage.SetObligationStatus"
	if err := checkCtx(ctx, op); err != nil {
		return models.OutcomeFailed, err
	}

	if status != models.ObligationPaid {
		paidAt = nil
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE general_obligations
		SET status = $2, paid_at = $3
		WHERE id = $1 AND status <> $2`, id, string(status), paidAt)
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
		`SELECT EXISTS (SELECT 1 FROM general_obligations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.OutcomeFailed, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return models.OutcomeNotFound, nil
	}
	if status == models.ObligationPaid {
		return models.OutcomeAlreadyPaid, nil
	}
	return models.OutcomeAlreadyInState, nil
}

// ListObligations возвращает обязательства по фильтру, упорядоченные по дате платежа.
func (s *Storage) ListObligations(ctx context.Context, f models.ObligationFilter) ([]models.GeneralObligation, error) {
	const op = "storage.ListObligations"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(string(f.Category)))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+next(string(f.Status)))
	}
	if f.TeamID != nil {
		conds = append(conds, "team_id = "+next(*f.TeamID))
	}
	if f.DueFrom != nil {
		conds = append(conds, "due_date >= "+next(*f.DueFrom))
	}
	if f.DueTo != nil {
		conds = append(conds, "due_date <= "+next(*f.DueTo))
	}

	query := `SELECT ` + obligationColumns + ` FROM general_obligations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY due_date, id"
	if f.Limit > 0 {
		query += " LIMIT " + next(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + next(f.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.GeneralObligation{}
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(r rowScanner) (*models.GeneralObligation, error) {
	var (
		o                           models.GeneralObligation
		category, frequency, status string
	)
	if err := r.Scan(&o.ID, &category, &o.Description, &o.Amount, &frequency, &o.RecurrencePattern,
		&status, &o.DueDate, &o.PaidAt, &o.GymID, &o.ActivityID, &o.TeamID, &o.CoachID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Category = models.ObligationCategory(category)
	o.Frequency = models.Frequency(frequency)
	o.Status = models.ObligationStatus(status)
	return &o, nil
}
