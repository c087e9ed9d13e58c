package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
)

type Direction string

const (
	DirectionEntry Direction = "ENTRY"
	DirectionExit  Direction = "EXIT"
)

var DirectionValues = []string{string(DirectionEntry), string(DirectionExit)}

type Method string

const (
	MethodFacial      Method = "facial"
	MethodFingerprint Method = "fingerprint"
	MethodTraditional Method = "traditional"
)

var MethodValues = []string{string(MethodFacial), string(MethodFingerprint), string(MethodTraditional)}

// SampleType maps a biometric method to the verifier sample type. Traditional
// registration has none.
func (m Method) SampleType() (verification.SampleType, bool) {
	switch m {
	case MethodFacial:
		return verification.SampleTypeFace, true
	case MethodFingerprint:
		return verification.SampleTypeFingerprint, true
	}
	return "", false
}

type Punctuality string

const (
	PunctualityEarly         Punctuality = "EARLY"
	PunctualityOnTime        Punctuality = "ON_TIME"
	PunctualityLate          Punctuality = "LATE"
	PunctualityNormal        Punctuality = "NORMAL"
	PunctualityNotApplicable Punctuality = "NOT_APPLICABLE"
)

// AttendanceEvent is one immutable punch. Schedule times and tolerance are
// copied from the schedule at write time.
type AttendanceEvent struct {
	ID               string
	Seq              int64 // insertion order
	CompanyID        string
	EmployeeID       string
	Date             time.Time
	Time             time.Time
	Direction        Direction
	ScheduleID       string
	ScheduledEntry   schedule.TimeOfDay
	ScheduledExit    schedule.TimeOfDay
	ToleranceMinutes int
	Punctuality      Punctuality
	LateMinutes      *int // nil when not applicable: EXIT events and holidays
	IsHoliday        bool
	Method           Method
	Confidence       *float64
	PhotoURL         *string
	CreatedAt        time.Time

	// DTO
	EmployeeName *string
}

func (e AttendanceEvent) Key() Key {
	return Key{EmployeeID: e.EmployeeID, Date: e.Date, ScheduleID: e.ScheduleID}
}

// Key identifies the (employee, date, schedule) group that direction
// inference and reconciliation operate on.
type Key struct {
	EmployeeID string
	Date       time.Time
	ScheduleID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.EmployeeID, k.Date.Format("2006-01-02"), k.ScheduleID)
}
