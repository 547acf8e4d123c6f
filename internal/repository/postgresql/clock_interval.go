package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

const (
	constraintIntervalKey = "clock_intervals_employee_clock_in_key"
	constraintOneOpen     = "clock_intervals_one_open_idx"
)

type clockIntervalRepository struct {
	db *database.DB
}

func NewClockIntervalRepository(db *database.DB) ledger.ClockIntervalRepository {
	return &clockIntervalRepository{db: db}
}

const clockIntervalColumns = `
	id, employee_id, clock_in, clock_out, source, total_minutes::float8, created_at, updated_at
`

func scanClockInterval(row pgx.Row) (ledger.ClockInterval, error) {
	var c ledger.ClockInterval
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.ClockIn, &c.ClockOut, &c.Source, &c.TotalMinutes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	c.ClockIn = c.ClockIn.UTC()
	if c.ClockOut != nil {
		out := c.ClockOut.UTC()
		c.ClockOut = &out
	}
	return c, nil
}

func (r *clockIntervalRepository) list(ctx context.Context, query string, args ...any) ([]ledger.ClockInterval, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []ledger.ClockInterval
	for rows.Next() {
		c, err := scanClockInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clock interval: %w", err)
		}
		intervals = append(intervals, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return intervals, nil
}

// ListByClockInRange implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) ListByClockInRange(ctx context.Context, start, end time.Time) ([]ledger.ClockInterval, error) {
	query := `SELECT ` + clockIntervalColumns + `
		FROM clock_intervals
		WHERE clock_in >= $1 AND clock_in < $2
		ORDER BY employee_id, clock_in`

	intervals, err := r.list(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock intervals: %w", err)
	}
	return intervals, nil
}

// ListOverlapping implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]ledger.ClockInterval, error) {
	query := `SELECT ` + clockIntervalColumns + `
		FROM clock_intervals
		WHERE employee_id = $1
		  AND clock_in < $3
		  AND (clock_out IS NULL OR clock_out > $2)
		ORDER BY clock_in`

	intervals, err := r.list(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping clock intervals: %w", err)
	}
	return intervals, nil
}

// Create implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) Create(ctx context.Context, interval ledger.ClockInterval) (ledger.ClockInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO clock_intervals (employee_id, clock_in, clock_out, source, total_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if interval.Source == "" {
		interval.Source = ledger.SourceTimeClock
	}

	err := q.QueryRow(ctx, query,
		interval.EmployeeID,
		interval.ClockIn,
		interval.ClockOut,
		interval.Source,
		interval.TotalMinutes,
	).Scan(&interval.ID, &interval.CreatedAt, &interval.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case constraintIntervalKey:
				return ledger.ClockInterval{}, ledger.ErrDuplicateKey
			case constraintOneOpen:
				return ledger.ClockInterval{}, ledger.ErrOpenIntervalConflict
			}
		}
		return ledger.ClockInterval{}, fmt.Errorf("failed to create clock interval: %w", err)
	}

	return interval, nil
}

// Close implements ledger.ClockIntervalRepository. Closed rows are never
// rewritten.
func (r *clockIntervalRepository) Close(ctx context.Context, id string, clockOut time.Time, totalMinutes float64) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE clock_intervals
		SET clock_out = $2, total_minutes = $3, updated_at = NOW()
		WHERE id = $1 AND clock_out IS NULL
	`

	tag, err := q.Exec(ctx, query, id, clockOut, totalMinutes)
	if err != nil {
		return fmt.Errorf("failed to close clock interval %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("open clock interval %s: %w", id, ledger.ErrIntervalNotFound)
	}
	return nil
}

// DeleteByIDs implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM clock_intervals WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete clock intervals: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetOpenInterval implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) GetOpenInterval(ctx context.Context, employeeID string) (*ledger.ClockInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + clockIntervalColumns + `
		FROM clock_intervals
		WHERE employee_id = $1 AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1`

	c, err := scanClockInterval(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open clock interval: %w", err)
	}
	return &c, nil
}

// ListOpen implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) ListOpen(ctx context.Context) ([]ledger.ClockInterval, error) {
	query := `SELECT ` + clockIntervalColumns + `
		FROM clock_intervals
		WHERE clock_out IS NULL
		ORDER BY clock_in, employee_id`

	intervals, err := r.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open clock intervals: %w", err)
	}
	return intervals, nil
}

// ListEmployeeIDsWithActivity implements ledger.ClockIntervalRepository.
func (r *clockIntervalRepository) ListEmployeeIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id::text
		FROM clock_intervals
		WHERE clock_in < $2
		  AND (clock_out IS NULL OR clock_out > $1)
		ORDER BY 1
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees with activity: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee ids: %w", err)
	}
	return ids, nil
}
