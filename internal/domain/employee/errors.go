package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrUnmappedEmployee means an external time-clock user id has no local employee.
	ErrUnmappedEmployee = errors.New("external user is not mapped to an employee")
)
