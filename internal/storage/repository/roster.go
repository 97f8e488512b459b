package repository

import (
	"context"
	"fmt"
)

// ListTeamAthleteIDs возвращает идентификаторы спортсменов из состава команды.
func (s *Storage) ListTeamAthleteIDs(ctx context.Context, teamID int64) ([]int64, error) {
	const op = "storage.ListTeamAthleteIDs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT athlete_id FROM team_athletes WHERE team_id = $1 ORDER BY athlete_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
