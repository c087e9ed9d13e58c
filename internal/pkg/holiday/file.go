// Package holiday provides holiday.Calendar implementations that do not need
// the database.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// YearJSON is one year of the calendar file. Days is a comma separated list
// per month; a "+" suffix marks a transferred holiday and a "*" suffix marks
// a shortened working day, which is not a holiday.
type YearJSON struct {
	Year      int          `json:"year"`
	Months    []MonthDays  `json:"months"`
	CivicDays []CivicEntry `json:"civic_days"`
}

type MonthDays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type CivicEntry struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	return dayKey{year: t.Year(), month: t.Month(), day: t.Day()}
}

// FileCalendar answers lookups from a calendar loaded once at startup. The
// same holidays apply to every company.
type FileCalendar struct {
	holidays  map[dayKey]struct{}
	civicDays map[dayKey]string
}

// LoadFile reads a JSON array of YearJSON documents.
func LoadFile(path string) (*FileCalendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday calendar: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*FileCalendar, error) {
	var years []YearJSON
	if err := json.Unmarshal(data, &years); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holiday calendar: %w", err)
	}

	cal := &FileCalendar{
		holidays:  make(map[dayKey]struct{}),
		civicDays: make(map[dayKey]string),
	}

	for _, y := range years {
		for _, m := range y.Months {
			if m.Month < 1 || m.Month > 12 {
				return nil, fmt.Errorf("invalid month %d in year %d", m.Month, y.Year)
			}
			for _, raw := range strings.Split(m.Days, ",") {
				dayStr := strings.TrimSpace(raw)
				if dayStr == "" || strings.HasSuffix(dayStr, "*") {
					continue
				}
				dayStr = strings.TrimSuffix(dayStr, "+")

				day, err := strconv.Atoi(dayStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", dayStr, m.Month, err)
				}
				date := time.Date(y.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
				if date.Day() != day {
					return nil, fmt.Errorf("day %d does not exist in %d-%02d", day, y.Year, m.Month)
				}
				cal.holidays[keyOf(date)] = struct{}{}
			}
		}

		for _, c := range y.CivicDays {
			date, err := time.Parse("2006-01-02", c.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid civic day %q: %w", c.Date, err)
			}
			cal.civicDays[keyOf(date)] = c.Name
		}
	}

	return cal, nil
}

func (c *FileCalendar) IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error) {
	_, ok := c.holidays[keyOf(date)]
	return ok, nil
}

func (c *FileCalendar) IsCivicDay(ctx context.Context, date time.Time) (bool, error) {
	_, ok := c.civicDays[keyOf(date)]
	return ok, nil
}
