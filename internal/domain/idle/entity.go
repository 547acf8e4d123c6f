package idle

import "time"

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const criticalFactor = 1.5

// SeverityFor grades an idle span against its threshold.
func SeverityFor(idleMinutes, threshold float64) Severity {
	if idleMinutes > criticalFactor*threshold {
		return SeverityCritical
	}
	return SeverityWarning
}

// IdlePeriod is one idle episode. EndTime is nil while the episode is open.
type IdlePeriod struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes float64    `json:"duration_minutes"`
	Severity        Severity   `json:"severity"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (p IdlePeriod) IsOpen() bool {
	return p.EndTime == nil
}
