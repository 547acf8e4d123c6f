package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/activity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type activityFeed struct {
	db *database.DB
}

// NewActivityFeed reads the activity_windows table populated by the
// production feed.
func NewActivityFeed(db *database.DB) activity.Feed {
	return &activityFeed{db: db}
}

// GetActivityWindows implements activity.Feed.
func (a *activityFeed) GetActivityWindows(ctx context.Context, employeeID string, start, end time.Time) ([]activity.ActivityWindow, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, role_id, items_count, window_start, window_end
		FROM activity_windows
		WHERE employee_id = $1
		  AND window_start < $3
		  AND window_end > $2
		ORDER BY window_start, id
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity windows: %w", err)
	}
	defer rows.Close()

	var windows []activity.ActivityWindow
	for rows.Next() {
		var w activity.ActivityWindow
		if err := rows.Scan(&w.ID, &w.EmployeeID, &w.RoleID, &w.ItemsCount, &w.WindowStart, &w.WindowEnd); err != nil {
			return nil, fmt.Errorf("failed to scan activity window: %w", err)
		}
		w.WindowStart = w.WindowStart.UTC()
		w.WindowEnd = w.WindowEnd.UTC()
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return windows, nil
}
