package report

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

var (
	secondsPerHour        = decimal.NewFromInt(3600)
	defaultScheduledHours = decimal.NewFromInt(8)
)

// Breakdown splits worked hours into buckets. Regular+Overtime+Sunday+Holiday
// always equals Worked.
type Breakdown struct {
	Worked   decimal.Decimal
	Regular  decimal.Decimal
	Overtime decimal.Decimal
	Sunday   decimal.Decimal
	Holiday  decimal.Decimal
}

// ClassifyHours buckets a session's worked time. Holiday wins over Sunday,
// Sunday wins over the regular/overtime split. weekday is ISO (7 = Sunday).
func ClassifyHours(s Session, isHoliday bool, weekday int) Breakdown {
	b := Breakdown{
		Worked:   decimal.Zero,
		Regular:  decimal.Zero,
		Overtime: decimal.Zero,
		Sunday:   decimal.Zero,
		Holiday:  decimal.Zero,
	}
	if !s.IsValid() {
		return b
	}

	// Rounded once, here; every bucket derives from this value.
	b.Worked = hours(s.Duration()).Round(2)

	switch {
	case isHoliday:
		b.Holiday = b.Worked
	case weekday == 7:
		b.Sunday = b.Worked
	default:
		scheduled := scheduledHours(s)
		if b.Worked.LessThanOrEqual(scheduled) {
			b.Regular = b.Worked
		} else {
			b.Regular = scheduled
			b.Overtime = b.Worked.Sub(scheduled)
		}
	}
	return b
}

// scheduledHours is the snapshot's duration at cent precision, 8h without one.
func scheduledHours(s Session) decimal.Decimal {
	if !s.HasSchedule {
		return defaultScheduledHours
	}
	return hours(schedule.ScheduledDuration(s.ScheduledEntry, s.ScheduledExit)).Round(2)
}

func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}
