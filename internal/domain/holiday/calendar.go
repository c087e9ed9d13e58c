package holiday

import (
	"context"
	"time"
)

// Calendar answers whether a date is a non-working day.
type Calendar interface {
	// IsHoliday reports a statutory or company holiday.
	IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error)
	// IsCivicDay reports a locally defined non-statutory holiday.
	IsCivicDay(ctx context.Context, date time.Time) (bool, error)
}

// IsNonWorking treats civic days like holidays, which is how both the
// registration path and hours classification consume the calendar.
func IsNonWorking(ctx context.Context, cal Calendar, date time.Time, companyID string) (bool, error) {
	isHoliday, err := cal.IsHoliday(ctx, date, companyID)
	if err != nil {
		return false, err
	}
	if isHoliday {
		return true, nil
	}
	return cal.IsCivicDay(ctx, date)
}
