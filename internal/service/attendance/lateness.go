package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

type EntryClassification struct {
	Punctuality attendance.Punctuality
	MinutesLate int
}

// ClassifyEntry grades an entry punch against the schedule. The grace window
// runs from the scheduled entry to entry+tolerance; lateness is counted from
// the end of that window. The punch's seconds are ignored.
func ClassifyEntry(scheduledEntry schedule.TimeOfDay, toleranceMinutes int, actual time.Time) EntryClassification {
	punch := actual.Truncate(time.Minute)
	entry := scheduledEntry.On(actual)
	windowEnd := entry.Add(time.Duration(toleranceMinutes) * time.Minute)

	switch {
	case punch.Before(entry):
		return EntryClassification{Punctuality: attendance.PunctualityEarly}
	case !punch.After(windowEnd):
		return EntryClassification{Punctuality: attendance.PunctualityOnTime}
	default:
		return EntryClassification{
			Punctuality: attendance.PunctualityLate,
			MinutesLate: int(punch.Sub(windowEnd) / time.Minute),
		}
	}
}

// ClassifyExit reports EARLY when the punch is before exit-tolerance. On an
// overnight schedule a punch at or after the entry time belongs to the evening
// part of the shift, so the exit it is measured against is the next day's.
func ClassifyExit(scheduledEntry, scheduledExit schedule.TimeOfDay, toleranceMinutes int, actual time.Time) attendance.Punctuality {
	punch := actual.Truncate(time.Minute)
	exit := scheduledExit.On(actual)
	if scheduledExit <= scheduledEntry && !punch.Before(scheduledEntry.On(actual)) {
		exit = exit.AddDate(0, 0, 1)
	}

	earliest := exit.Add(-time.Duration(toleranceMinutes) * time.Minute)
	if punch.Before(earliest) {
		return attendance.PunctualityEarly
	}
	return attendance.PunctualityNormal
}
