package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is an expected entry/exit window with a grace period, active on a
// set of ISO weekdays. Events copy EntryTime, ExitTime and ToleranceMinutes at
// write time, so editing a schedule never rewrites history.
type Schedule struct {
	ID               string
	CompanyID        string
	EstablishmentID  string
	Name             string
	EntryTime        TimeOfDay
	ExitTime         TimeOfDay
	ToleranceMinutes int
	Weekdays         []int // 1=Monday, ..., 7=Sunday
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActiveOn reports whether the schedule applies on the given ISO weekday.
func (s Schedule) ActiveOn(weekday int) bool {
	for _, d := range s.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Duration is the scheduled working time. An exit at or before the entry is
// treated as an overnight shift.
func (s Schedule) Duration() time.Duration {
	return ScheduledDuration(s.EntryTime, s.ExitTime)
}

type Assignment struct {
	ID            string
	EmployeeID    string
	ScheduleID    string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil means open-ended
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Schedule Schedule
}

// Covers reports whether the assignment is effective on date (inclusive).
func (a Assignment) Covers(date time.Time) bool {
	d := DateOnly(date)
	if d.Before(DateOnly(a.EffectiveFrom)) {
		return false
	}
	return a.EffectiveTo == nil || !d.After(DateOnly(*a.EffectiveTo))
}

// TimeOfDay is a wall-clock offset from midnight with minute resolution.
type TimeOfDay time.Duration

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay accepts "15:04" and "15:04:05"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int   { return int(time.Duration(t) / time.Hour) }
func (t TimeOfDay) Minute() int { return int(time.Duration(t)%time.Hour) / int(time.Minute) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On places the time of day on the calendar date of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}

// ScheduledDuration returns exit-entry, adding a day for overnight shifts.
func ScheduledDuration(entry, exit TimeOfDay) time.Duration {
	d := time.Duration(exit) - time.Duration(entry)
	if d <= 0 {
		d += 24 * time.Hour
	}
	return d
}

// ISOWeekday maps t to 1=Monday, ..., 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
