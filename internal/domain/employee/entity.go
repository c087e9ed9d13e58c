package employee

import "time"

// Employee is the read-only view of the employee directory the attendance
// engine needs.
type Employee struct {
	ID               string
	CompanyID        string
	EstablishmentID  string
	SiteID           *string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time

	// Joined from establishments
	Timezone string
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// IsActive reports whether the employee may register attendance.
func (e Employee) IsActive() bool {
	return e.DeletedAt == nil && e.EmploymentStatus == EmploymentStatusActive
}
