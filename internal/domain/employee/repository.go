package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}

// Directory resolves identifiers issued by external systems.
type Directory interface {
	// ResolveExternalID returns the employee id mapped to a time-clock user id,
	// or ErrUnmappedEmployee.
	ResolveExternalID(ctx context.Context, externalUserID string) (string, error)
}
