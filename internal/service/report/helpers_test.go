package report

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

var (
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

type eventOpt func(*attendance.AttendanceEvent)

func onDate(d time.Time) eventOpt {
	return func(e *attendance.AttendanceEvent) { e.Date = d }
}

func forEmployee(id string) eventOpt {
	return func(e *attendance.AttendanceEvent) { e.EmployeeID = id }
}

func underSchedule(id string) eventOpt {
	return func(e *attendance.AttendanceEvent) { e.ScheduleID = id }
}

func late(minutes int) eventOpt {
	return func(e *attendance.AttendanceEvent) {
		e.Punctuality = attendance.PunctualityLate
		e.LateMinutes = &minutes
	}
}

// punch builds an event for emp-1 on monday under a 08:00-17:00 schedule
// with 10 minutes tolerance.
func punch(dir attendance.Direction, hour, minute int, opts ...eventOpt) attendance.AttendanceEvent {
	e := attendance.AttendanceEvent{
		ID:               "ev",
		CompanyID:        "company-1",
		EmployeeID:       "emp-1",
		Date:             monday,
		Direction:        dir,
		ScheduleID:       "sched-1",
		ScheduledEntry:   schedule.NewTimeOfDay(8, 0),
		ScheduledExit:    schedule.NewTimeOfDay(17, 0),
		ToleranceMinutes: 10,
		Method:           attendance.MethodTraditional,
	}
	if dir == attendance.DirectionEntry {
		zero := 0
		e.Punctuality = attendance.PunctualityOnTime
		e.LateMinutes = &zero
	} else {
		e.Punctuality = attendance.PunctualityNormal
	}
	for _, opt := range opts {
		opt(&e)
	}
	e.Time = time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), hour, minute, 0, 0, time.UTC)
	return e
}

func entry(hour, minute int, opts ...eventOpt) attendance.AttendanceEvent {
	return punch(attendance.DirectionEntry, hour, minute, opts...)
}

func exit(hour, minute int, opts ...eventOpt) attendance.AttendanceEvent {
	return punch(attendance.DirectionExit, hour, minute, opts...)
}

func ptr(s string) *string { return &s }

func withSnapshot(entryHour, exitHour int) eventOpt {
	return func(e *attendance.AttendanceEvent) {
		e.ScheduledEntry = schedule.NewTimeOfDay(entryHour, 0)
		e.ScheduledExit = schedule.NewTimeOfDay(exitHour, 0)
	}
}
