package idle

import "time"

// IdleStatus is the evaluation of one clocked-in employee.
type IdleStatus struct {
	EmployeeID       string      `json:"employee_id"`
	RoleID           string      `json:"role_id"`
	ClockIn          time.Time   `json:"clock_in"`
	ReferenceTime    time.Time   `json:"reference_time"`
	IdleMinutes      float64     `json:"idle_minutes"`
	ThresholdMinutes float64     `json:"threshold_minutes"`
	IsIdle           bool        `json:"is_idle"`
	Severity         Severity    `json:"severity,omitempty"`
	Period           *IdlePeriod `json:"period,omitempty"`
	PeriodCreated    bool        `json:"period_created"`
}
