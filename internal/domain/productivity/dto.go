package productivity

import (
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/validator"
)

// Result is the productivity of one employee over a date range.
type Result struct {
	EmployeeID     string  `json:"employee_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	ClockedMinutes float64 `json:"clocked_minutes"`
	ActiveMinutes  float64 `json:"active_minutes"`
	IdleMinutes    float64 `json:"idle_minutes"`
	ItemsCount     int     `json:"items_count"`
	ItemsPerHour   float64 `json:"items_per_hour"`
	Score          float64 `json:"score"`
}

type DailyScoreResponse struct {
	EmployeeID     string  `json:"employee_id"`
	Date           string  `json:"date"`
	ClockedMinutes float64 `json:"clocked_minutes"`
	ActiveMinutes  float64 `json:"active_minutes"`
	IdleMinutes    float64 `json:"idle_minutes"`
	ItemsCount     int     `json:"items_count"`
	ItemsPerHour   float64 `json:"items_per_hour"`
	Score          float64 `json:"score"`
	ComputedAt     string  `json:"computed_at"`
}

type RecomputeRequest struct {
	Date string `json:"date"`
}

func (r *RecomputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RecomputeResponse struct {
	Date     string `json:"date"`
	Computed int    `json:"computed"`
	Failed   int    `json:"failed"`
}
