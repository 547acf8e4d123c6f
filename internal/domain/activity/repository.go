package activity

import (
	"context"
	"time"
)

// Feed is the read-only view over the production activity feed.
type Feed interface {
	// GetActivityWindows returns the employee's windows overlapping [start, end),
	// ordered by window_start.
	GetActivityWindows(ctx context.Context, employeeID string, start, end time.Time) ([]ActivityWindow, error)
}
