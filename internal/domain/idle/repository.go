package idle

import (
	"context"
	"time"
)

type IdlePeriodRepository interface {
	// UpsertOpen records the open episode starting at p.StartTime, updating
	// its duration and severity if it already exists. created reports whether
	// a new row was inserted.
	UpsertOpen(ctx context.Context, p IdlePeriod) (period IdlePeriod, created bool, err error)

	// CloseOpen closes the employee's open episodes, except the one starting
	// at keepStart when it is non-nil.
	CloseOpen(ctx context.Context, employeeID string, endTime time.Time, keepStart *time.Time) (int64, error)

	ListOpen(ctx context.Context) ([]IdlePeriod, error)
	ListByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]IdlePeriod, error)
}
