package response

import (
	"errors"
	"net/http"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/role"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/cron"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Date handling
	case errors.Is(err, timezone.ErrInvalidDate):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, timezone.ErrInvalidRange):
		BadRequest(w, "end_date must not be before start_date", nil)

	// Reconciliation
	case errors.Is(err, ledger.ErrLockContention):
		Conflict(w, "Reconciliation already running")
	case errors.Is(err, ledger.ErrTransientFetch):
		ServiceUnavailable(w, "Time clock service unavailable, try again later")

	// Employees and roles
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, role.ErrRoleNotFound):
		NotFound(w, "Role configuration not found")
	case errors.Is(err, idle.ErrNotClockedIn):
		NotFound(w, "Employee is not clocked in")

	// Scheduler
	case errors.Is(err, cron.ErrUnknownJob):
		NotFound(w, "Job not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
