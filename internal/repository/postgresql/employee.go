package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// NewEmployeeDirectory resolves time-clock user ids against employees.
func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, full_name, time_clock_user_id, production_emails, role_id, status, created_at, updated_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.FullName, &e.TimeClockUserID, &e.ProductionEmails,
		&e.RoleID, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, fmt.Errorf("employee with id %s: %w", id, employee.ErrEmployeeNotFound)
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}

	return emp, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = $1 ORDER BY full_name, id`

	rows, err := q.Query(ctx, query, employee.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return employees, nil
}

// ResolveExternalID implements employee.Directory. Archived employees stay
// resolvable so late corrections to their shifts still land.
func (e *employeeRepositoryImpl) ResolveExternalID(ctx context.Context, externalUserID string) (string, error) {
	q := GetQuerier(ctx, e.db)

	var id string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE time_clock_user_id = $1`, externalUserID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("time clock user %s: %w", externalUserID, employee.ErrUnmappedEmployee)
		}
		return "", fmt.Errorf("failed to resolve time clock user %s: %w", externalUserID, err)
	}

	return id, nil
}
