package ledger

import (
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/validator"
)

// ReconcileStats are the aggregate counts of one reconciliation run.
type ReconcileStats struct {
	Window            string `json:"window"`
	Fetched           int    `json:"fetched"`
	Created           int    `json:"created"`
	Updated           int    `json:"updated"`
	Unchanged         int    `json:"unchanged"`
	Errors            int    `json:"errors"`
	Unmapped          int    `json:"unmapped"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	FetchFailures     int    `json:"fetch_failures"`
	Partial           bool   `json:"partial"`
}

func (s *ReconcileStats) Add(o ReconcileStats) {
	s.Fetched += o.Fetched
	s.Created += o.Created
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Errors += o.Errors
	s.Unmapped += o.Unmapped
	s.DuplicatesRemoved += o.DuplicatesRemoved
	s.FetchFailures += o.FetchFailures
	s.Partial = s.Partial || o.Partial
}

type ReconcileRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	} else if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	if !validator.IsEmpty(r.EndDate) {
		if _, ok := validator.IsValidDate(r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
