package idle

import (
	"context"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

type IdleService interface {
	// CheckIdle evaluates one employee. Returns nil when the employee has no
	// open clock interval.
	CheckIdle(ctx context.Context, employeeID string) (*IdleStatus, error)

	// CheckAllClockedIn evaluates every clocked-in employee and returns the idle ones.
	CheckAllClockedIn(ctx context.Context) ([]IdleStatus, error)

	// ListPeriods returns the employee's idle episodes overlapping the local dates.
	ListPeriods(ctx context.Context, employeeID string, dateRange timezone.DateRange) ([]IdlePeriod, error)
}
