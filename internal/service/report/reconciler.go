package report

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

// Session pairs the effective entry and exit of one (employee, date,
// schedule) group.
type Session struct {
	Key       attendance.Key
	CompanyID string
	Entry     *attendance.AttendanceEvent
	Exit      *attendance.AttendanceEvent

	// Schedule snapshot taken from the effective events
	ScheduledEntry   schedule.TimeOfDay
	ScheduledExit    schedule.TimeOfDay
	ToleranceMinutes int
	// HasSchedule is false only for events recorded without a schedule id;
	// any snapshot times, 00:00-00:00 included, count as a schedule.
	HasSchedule bool
}

// IsOpen reports an entry still waiting for its exit.
func (s Session) IsOpen() bool {
	return s.Entry != nil && s.Exit == nil
}

// IsValid reports a pair whose exit is strictly after its entry.
func (s Session) IsValid() bool {
	return s.Entry != nil && s.Exit != nil && s.Exit.Time.After(s.Entry.Time)
}

// Duration is zero unless the session is valid.
func (s Session) Duration() time.Duration {
	if !s.IsValid() {
		return 0
	}
	return s.Exit.Time.Sub(s.Entry.Time)
}

func (s Session) Status() report.SessionStatus {
	switch {
	case s.IsValid():
		return report.StatusComplete
	case s.IsOpen():
		return report.StatusOpen
	case s.Entry == nil:
		return report.StatusMissingEntry
	default:
		return report.StatusInvalid
	}
}

// Reconcile groups events by (employee, date, schedule) and keeps, per group,
// the last ENTRY and the last EXIT by position in events. Groups come out in
// order of first appearance. events must be in insertion order within each
// group; the input is not modified.
func Reconcile(events []attendance.AttendanceEvent) []Session {
	index := make(map[string]int)
	var sessions []Session

	for i := range events {
		ev := &events[i]
		key := ev.Key()

		pos, seen := index[key.String()]
		if !seen {
			pos = len(sessions)
			index[key.String()] = pos
			sessions = append(sessions, Session{Key: key, CompanyID: ev.CompanyID})
		}

		switch ev.Direction {
		case attendance.DirectionEntry:
			sessions[pos].Entry = ev
		case attendance.DirectionExit:
			sessions[pos].Exit = ev
		}
	}

	for i := range sessions {
		sessions[i].takeSnapshot()
	}
	return sessions
}

// takeSnapshot copies schedule times from the entry, falling back to the exit.
func (s *Session) takeSnapshot() {
	src := s.Entry
	if src == nil {
		src = s.Exit
	}
	if src == nil {
		return
	}
	s.ScheduledEntry = src.ScheduledEntry
	s.ScheduledExit = src.ScheduledExit
	s.ToleranceMinutes = src.ToleranceMinutes
	s.HasSchedule = src.ScheduleID != ""
}
