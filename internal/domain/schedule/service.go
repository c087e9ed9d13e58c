package schedule

import (
	"context"
	"time"
)

// Resolver picks the single schedule that applies to an employee on a date.
type Resolver interface {
	// Resolve returns ErrNoActiveSchedule when no covering assignment is active
	// on the date's weekday.
	Resolve(ctx context.Context, companyID, employeeID string, date time.Time) (Schedule, error)
}
