package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type dailyScoreRepository struct {
	db *database.DB
}

func NewDailyScoreRepository(db *database.DB) productivity.DailyScoreRepository {
	return &dailyScoreRepository{db: db}
}

// SaveDay implements productivity.DailyScoreRepository.
func (r *dailyScoreRepository) SaveDay(ctx context.Context, date time.Time, scores []productivity.DailyScore) error {
	day := date.Format("2006-01-02")

	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		keep := make([]string, 0, len(scores))
		for _, s := range scores {
			keep = append(keep, s.EmployeeID)
		}
		if _, err := q.Exec(txCtx,
			`DELETE FROM daily_scores WHERE score_date = $1::date AND NOT (employee_id = ANY($2::uuid[]))`,
			day, keep,
		); err != nil {
			return fmt.Errorf("failed to prune daily scores: %w", err)
		}

		query := `
			INSERT INTO daily_scores (
				employee_id, score_date, clocked_minutes, active_minutes, idle_minutes,
				items_count, items_per_hour, score, computed_at
			) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (employee_id, score_date) DO UPDATE
			SET clocked_minutes = EXCLUDED.clocked_minutes,
			    active_minutes = EXCLUDED.active_minutes,
			    idle_minutes = EXCLUDED.idle_minutes,
			    items_count = EXCLUDED.items_count,
			    items_per_hour = EXCLUDED.items_per_hour,
			    score = EXCLUDED.score,
			    computed_at = EXCLUDED.computed_at
		`
		for _, s := range scores {
			if _, err := q.Exec(txCtx, query,
				s.EmployeeID, day, s.ClockedMinutes, s.ActiveMinutes, s.IdleMinutes,
				s.ItemsCount, s.ItemsPerHour, s.Score, s.ComputedAt,
			); err != nil {
				return fmt.Errorf("failed to upsert daily score for %s: %w", s.EmployeeID, err)
			}
		}
		return nil
	})
}

// ListByDate implements productivity.DailyScoreRepository.
func (r *dailyScoreRepository) ListByDate(ctx context.Context, date time.Time) ([]productivity.DailyScore, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, score_date, clocked_minutes, active_minutes, idle_minutes,
		       items_count, items_per_hour, score, computed_at
		FROM daily_scores
		WHERE score_date = $1::date
		ORDER BY score DESC, employee_id
	`

	rows, err := q.Query(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily scores: %w", err)
	}
	defer rows.Close()

	var scores []productivity.DailyScore
	for rows.Next() {
		var s productivity.DailyScore
		if err := rows.Scan(
			&s.EmployeeID, &s.ScoreDate, &s.ClockedMinutes, &s.ActiveMinutes, &s.IdleMinutes,
			&s.ItemsCount, &s.ItemsPerHour, &s.Score, &s.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return scores, nil
}
