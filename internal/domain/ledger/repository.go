package ledger

import (
	"context"
	"time"
)

type ClockIntervalRepository interface {
	// ListByClockInRange returns every interval whose clock_in is in [start, end).
	ListByClockInRange(ctx context.Context, start, end time.Time) ([]ClockInterval, error)

	// ListOverlapping returns the employee's intervals overlapping [start, end),
	// open intervals included, ordered by clock_in.
	ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]ClockInterval, error)

	// Create inserts a new interval. Returns ErrDuplicateKey or ErrOpenIntervalConflict
	// on unique violations.
	Create(ctx context.Context, interval ClockInterval) (ClockInterval, error)

	// Close sets clock_out and total_minutes on an open interval.
	Close(ctx context.Context, id string, clockOut time.Time, totalMinutes float64) error

	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	GetOpenInterval(ctx context.Context, employeeID string) (*ClockInterval, error)
	ListOpen(ctx context.Context) ([]ClockInterval, error)

	// ListEmployeeIDsWithActivity returns employees with an interval overlapping [start, end).
	ListEmployeeIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error)
}

type SyncLockRepository interface {
	// Acquire takes the named lock, reclaiming it if the current holder
	// acquired it before staleBefore. Returns ErrLockContention otherwise.
	Acquire(ctx context.Context, name, owner string, now, staleBefore time.Time) error
	Release(ctx context.Context, name, owner string) error
}

// ShiftSource is the external time-clock service.
type ShiftSource interface {
	GetShiftsForDate(ctx context.Context, date time.Time) ([]Shift, error)
}
