package attendance

import (
	"context"
	"time"
)

// EventQuery selects events for the hours report.
type EventQuery struct {
	DateFrom        time.Time
	DateTo          time.Time
	SiteID          *string
	EstablishmentID *string
	EmployeeIDs     []string
}

// EventRepository is append-only: events are never updated or deleted here.
// Every list is returned in insertion order within a (employee, date, schedule) group.
type EventRepository interface {
	Create(ctx context.Context, event AttendanceEvent) (AttendanceEvent, error)

	// ListByKey returns the events of one group; used to infer direction.
	ListByKey(ctx context.Context, companyID string, key Key) ([]AttendanceEvent, error)

	ListByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) ([]AttendanceEvent, error)

	// Query returns events ordered by employee, date, schedule and insertion.
	Query(ctx context.Context, companyID string, q EventQuery) ([]AttendanceEvent, error)

	// ListByDate returns the events of every company for one date.
	ListByDate(ctx context.Context, date time.Time) ([]AttendanceEvent, error)
}

// KeyLocker serializes read-then-write sequences on one group. fn receives a
// context that carries the lock's transaction, so repository calls made with
// it observe and extend the locked state.
type KeyLocker interface {
	WithLock(ctx context.Context, key Key, fn func(ctx context.Context) error) error
}
