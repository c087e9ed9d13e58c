package holiday

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
)

// Chain consults several calendars; a date is a holiday when any of them says
// so. Errors are only returned when no calendar gave a positive answer.
type Chain []holiday.Calendar

func (c Chain) IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error) {
	return c.any(func(cal holiday.Calendar) (bool, error) {
		return cal.IsHoliday(ctx, date, companyID)
	})
}

func (c Chain) IsCivicDay(ctx context.Context, date time.Time) (bool, error) {
	return c.any(func(cal holiday.Calendar) (bool, error) {
		return cal.IsCivicDay(ctx, date)
	})
}

func (c Chain) any(lookup func(holiday.Calendar) (bool, error)) (bool, error) {
	var errs []error
	for _, cal := range c {
		ok, err := lookup(cal)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}
