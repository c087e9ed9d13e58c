package schedule

import (
	"context"
	"time"
)

type AssignmentRepository interface {
	// ListCovering returns every assignment of the employee effective on date,
	// with its Schedule populated. Order is unspecified.
	ListCovering(ctx context.Context, companyID, employeeID string, date time.Time) ([]Assignment, error)
}
