package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type idlePeriodRepository struct {
	db *database.DB
}

func NewIdlePeriodRepository(db *database.DB) idle.IdlePeriodRepository {
	return &idlePeriodRepository{db: db}
}

const idlePeriodColumns = `
	id, employee_id, start_time, end_time, duration_minutes::float8, severity, created_at, updated_at
`

func scanIdlePeriod(row pgx.Row) (idle.IdlePeriod, error) {
	var p idle.IdlePeriod
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.StartTime, &p.EndTime, &p.DurationMinutes, &p.Severity,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// UpsertOpen implements idle.IdlePeriodRepository. A closed episode with the
// same start is left untouched. xmax = 0 only for freshly inserted rows.
func (r *idlePeriodRepository) UpsertOpen(ctx context.Context, p idle.IdlePeriod) (idle.IdlePeriod, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO idle_periods (employee_id, start_time, duration_minutes, severity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, start_time) DO UPDATE
		SET duration_minutes = CASE WHEN idle_periods.end_time IS NULL
		                            THEN EXCLUDED.duration_minutes ELSE idle_periods.duration_minutes END,
		    severity = CASE WHEN idle_periods.end_time IS NULL
		                    THEN EXCLUDED.severity ELSE idle_periods.severity END,
		    updated_at = NOW()
		RETURNING ` + idlePeriodColumns + `, (xmax = 0)
	`

	var (
		out     idle.IdlePeriod
		created bool
	)
	err := q.QueryRow(ctx, query, p.EmployeeID, p.StartTime, p.DurationMinutes, p.Severity).Scan(
		&out.ID, &out.EmployeeID, &out.StartTime, &out.EndTime, &out.DurationMinutes, &out.Severity,
		&out.CreatedAt, &out.UpdatedAt, &created,
	)
	if err != nil {
		return idle.IdlePeriod{}, false, fmt.Errorf("failed to upsert idle period: %w", err)
	}
	return out, created, nil
}

// CloseOpen implements idle.IdlePeriodRepository.
func (r *idlePeriodRepository) CloseOpen(ctx context.Context, employeeID string, endTime time.Time, keepStart *time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE idle_periods
		SET end_time = GREATEST($2, start_time),
		    duration_minutes = ROUND((EXTRACT(EPOCH FROM (GREATEST($2, start_time) - start_time)) / 60)::numeric, 2),
		    updated_at = NOW()
		WHERE employee_id = $1
		  AND end_time IS NULL
		  AND ($3::timestamptz IS NULL OR start_time <> $3)
	`

	tag, err := q.Exec(ctx, query, employeeID, endTime, keepStart)
	if err != nil {
		return 0, fmt.Errorf("failed to close idle periods: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *idlePeriodRepository) list(ctx context.Context, query string, args ...any) ([]idle.IdlePeriod, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []idle.IdlePeriod
	for rows.Next() {
		p, err := scanIdlePeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idle period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return periods, nil
}

// ListOpen implements idle.IdlePeriodRepository.
func (r *idlePeriodRepository) ListOpen(ctx context.Context) ([]idle.IdlePeriod, error) {
	query := `SELECT ` + idlePeriodColumns + ` FROM idle_periods WHERE end_time IS NULL ORDER BY start_time, employee_id`

	periods, err := r.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open idle periods: %w", err)
	}
	return periods, nil
}

// ListByEmployee implements idle.IdlePeriodRepository.
func (r *idlePeriodRepository) ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]idle.IdlePeriod, error) {
	query := `SELECT ` + idlePeriodColumns + `
		FROM idle_periods
		WHERE employee_id = $1
		  AND start_time < $3
		  AND (end_time IS NULL OR end_time > $2)
		ORDER BY start_time`

	periods, err := r.list(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle periods: %w", err)
	}
	return periods, nil
}
