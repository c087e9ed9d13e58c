package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no employee with id exists in the company.
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
}
