package schedule

import "errors"

var (
	ErrNoActiveSchedule = errors.New("no active schedule for this employee today")
	ErrScheduleNotFound = errors.New("work schedule not found")
)
