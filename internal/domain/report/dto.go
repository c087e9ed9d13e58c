package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// HOURS REPORT
// ========================================

type HoursReportRequest struct {
	DateFrom        string   `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo          string   `json:"date_to" validate:"required,datetime=2006-01-02"`
	SiteID          *string  `json:"site_id,omitempty" validate:"omitempty,uuid"`
	EstablishmentID *string  `json:"establishment_id,omitempty" validate:"omitempty,uuid"`
	EmployeeIDs     []string `json:"employee_ids,omitempty" validate:"omitempty,max=500,dive,required,uuid"`
}

// Validate checks the request and returns the parsed, inclusive date range.
func (r *HoursReportRequest) Validate(maxRangeDays int) (time.Time, time.Time, error) {
	if err := validator.Struct(r); err != nil {
		return time.Time{}, time.Time{}, err
	}

	from, _ := time.Parse("2006-01-02", r.DateFrom)
	to, _ := time.Parse("2006-01-02", r.DateTo)

	var errs validator.ValidationErrors
	if to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: ErrInvalidDateRange.Error(),
		})
	} else if days := int(to.Sub(from).Hours()/24) + 1; maxRangeDays > 0 && days > maxRangeDays {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: fmt.Sprintf("date range must not exceed %d days", maxRangeDays),
		})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return from, to, nil
}

type SessionStatus string

const (
	// StatusComplete has an entry and a later exit; only these carry hours.
	StatusComplete     SessionStatus = "complete"
	StatusOpen         SessionStatus = "open"
	StatusInvalid      SessionStatus = "invalid"
	StatusMissingEntry SessionStatus = "missing_entry"
)

type HoursReport struct {
	DateFrom    string      `json:"date_from"`
	DateTo      string      `json:"date_to"`
	GeneratedAt string      `json:"generated_at"`
	Rows        []HoursRow  `json:"rows"`
	Totals      HoursTotals `json:"totals"`
}

// HoursRow is one (employee, date, schedule) session.
type HoursRow struct {
	EmployeeID       string        `json:"employee_id"`
	EmployeeName     string        `json:"employee_name"`
	Date             string        `json:"date"`
	Weekday          int           `json:"weekday"`
	ScheduleID       string        `json:"schedule_id"`
	EntryTime        *string       `json:"entry_time"`
	ExitTime         *string       `json:"exit_time"`
	ScheduledEntry   string        `json:"scheduled_entry"`
	ScheduledExit    string        `json:"scheduled_exit"`
	ToleranceMinutes int           `json:"tolerance_minutes"`
	Punctuality      *string       `json:"punctuality"`
	LateMinutes      *int          `json:"late_minutes"`
	IsHoliday        bool          `json:"is_holiday"`
	Status           SessionStatus `json:"status"`

	Worked   decimal.Decimal `json:"worked_hours"`
	Regular  decimal.Decimal `json:"regular_hours"`
	Overtime decimal.Decimal `json:"overtime_hours"`
	Sunday   decimal.Decimal `json:"sunday_hours"`
	Holiday  decimal.Decimal `json:"holiday_hours"`
}

type HoursTotals struct {
	Sessions         int `json:"sessions"`
	CompleteSessions int `json:"complete_sessions"`
	OpenSessions     int `json:"open_sessions"`
	InvalidSessions  int `json:"invalid_sessions"`
	LateEntries      int `json:"late_entries"`
	LateMinutes      int `json:"late_minutes"`

	Worked   decimal.Decimal `json:"worked_hours"`
	Regular  decimal.Decimal `json:"regular_hours"`
	Overtime decimal.Decimal `json:"overtime_hours"`
	Sunday   decimal.Decimal `json:"sunday_hours"`
	Holiday  decimal.Decimal `json:"holiday_hours"`
}

// ========================================
// OPEN SESSIONS
// ========================================

// OpenSession is an entry that never got an exit.
type OpenSession struct {
	CompanyID    string
	EmployeeID   string
	EmployeeName string
	Date         time.Time
	ScheduleID   string
	EntryTime    time.Time
}
