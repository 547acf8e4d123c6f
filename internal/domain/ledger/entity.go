package ledger

import (
	"time"
)

const SourceTimeClock = "time_clock"

// ClockInterval is one physical clock-in, optionally closed by a clock-out.
// (EmployeeID, ClockIn) identifies the row.
type ClockInterval struct {
	ID           string
	EmployeeID   string
	ClockIn      time.Time
	ClockOut     *time.Time
	Source       string
	TotalMinutes *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c ClockInterval) IsOpen() bool {
	return c.ClockOut == nil
}

func (c ClockInterval) Key() IntervalKey {
	return NewIntervalKey(c.EmployeeID, c.ClockIn)
}

// EffectiveEnd is the clock-out, or now for an open interval.
func (c ClockInterval) EffectiveEnd(now time.Time) time.Time {
	if c.ClockOut != nil {
		return *c.ClockOut
	}
	return now
}

// Close sets the clock-out and derives TotalMinutes.
func (c *ClockInterval) Close(clockOut time.Time) {
	out := clockOut.UTC().Truncate(time.Second)
	minutes := out.Sub(c.ClockIn).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	c.ClockOut = &out
	c.TotalMinutes = &minutes
}

// IntervalKey is the exact-match key of a ledger row.
type IntervalKey struct {
	EmployeeID string
	ClockIn    int64
}

func NewIntervalKey(employeeID string, clockIn time.Time) IntervalKey {
	return IntervalKey{EmployeeID: employeeID, ClockIn: clockIn.UTC().Truncate(time.Second).Unix()}
}

// Shift is a record from the external time-clock service.
type Shift struct {
	ExternalUserID string
	ClockIn        time.Time
	ClockOut       *time.Time
	TotalMinutes   float64
	IsActive       bool
}

// CompletedAt returns the clock-out the shift implies, if any. An inactive
// shift without an explicit clock-out is closed at ClockIn + TotalMinutes.
func (s Shift) CompletedAt() (time.Time, bool) {
	if s.ClockOut != nil {
		return s.ClockOut.UTC(), true
	}
	if !s.IsActive && s.TotalMinutes > 0 {
		return s.ClockIn.UTC().Add(time.Duration(s.TotalMinutes * float64(time.Minute))), true
	}
	return time.Time{}, false
}

// SyncLock is the single-row mutual exclusion record of a named job.
type SyncLock struct {
	Name       string
	Owner      string
	AcquiredAt time.Time
}
