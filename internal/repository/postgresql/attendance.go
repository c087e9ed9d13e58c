package postgresql

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB

	locations sync.Map // timezone name -> *time.Location
}

func NewAttendanceRepository(db *database.DB) attendance.EventRepository {
	return &attendanceRepository{db: db}
}

const eventColumns = `
	a.seq, a.id, a.company_id, a.employee_id, a.date, a.punched_at, a.direction,
	a.work_schedule_id, a.scheduled_entry::text, a.scheduled_exit::text, a.tolerance_minutes,
	a.punctuality, a.late_minutes, a.is_holiday, a.method, a.confidence, a.photo_path,
	a.created_at, e.full_name, est.timezone`

const eventJoins = `
	FROM attendance_events a
	JOIN employees e ON e.id = a.employee_id
	JOIN establishments est ON est.id = e.establishment_id`

// Create implements attendance.EventRepository.
func (a *attendanceRepository) Create(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_events (
			id, company_id, employee_id, date, punched_at, direction,
			work_schedule_id, scheduled_entry, scheduled_exit, tolerance_minutes,
			punctuality, late_minutes, is_holiday, method, confidence, photo_path
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8::time, $9::time, $10,
			$11, $12, $13, $14, $15, $16
		) RETURNING seq, created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID, event.CompanyID, event.EmployeeID, event.Date, event.Time, event.Direction,
		event.ScheduleID, event.ScheduledEntry.String(), event.ScheduledExit.String(), event.ToleranceMinutes,
		event.Punctuality, event.LateMinutes, event.IsHoliday, event.Method, event.Confidence, event.PhotoURL,
	).Scan(&event.Seq, &event.CreatedAt)
	if err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("failed to create attendance event: %w", err)
	}

	return event, nil
}

// ListByKey implements attendance.EventRepository.
func (a *attendanceRepository) ListByKey(ctx context.Context, companyID string, key attendance.Key) ([]attendance.AttendanceEvent, error) {
	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE a.company_id = $1 AND a.employee_id = $2 AND a.date = $3 AND a.work_schedule_id = $4
		ORDER BY a.seq`

	return a.list(ctx, query, companyID, key.EmployeeID, key.Date, key.ScheduleID)
}

// ListByEmployeeAndDate implements attendance.EventRepository.
func (a *attendanceRepository) ListByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) ([]attendance.AttendanceEvent, error) {
	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE a.company_id = $1 AND a.employee_id = $2 AND a.date = $3
		ORDER BY a.seq`

	return a.list(ctx, query, companyID, employeeID, date)
}

// Query implements attendance.EventRepository.
func (a *attendanceRepository) Query(ctx context.Context, companyID string, filter attendance.EventQuery) ([]attendance.AttendanceEvent, error) {
	baseWhere := "a.company_id = $1 AND a.date >= $2 AND a.date <= $3"
	args := []interface{}{companyID, filter.DateFrom, filter.DateTo}
	argIdx := 4

	if filter.SiteID != nil && *filter.SiteID != "" {
		baseWhere += fmt.Sprintf(" AND e.site_id = $%d", argIdx)
		args = append(args, *filter.SiteID)
		argIdx++
	}

	if filter.EstablishmentID != nil && *filter.EstablishmentID != "" {
		baseWhere += fmt.Sprintf(" AND e.establishment_id = $%d", argIdx)
		args = append(args, *filter.EstablishmentID)
		argIdx++
	}

	if len(filter.EmployeeIDs) > 0 {
		baseWhere += fmt.Sprintf(" AND a.employee_id = ANY($%d::uuid[])", argIdx)
		args = append(args, filter.EmployeeIDs)
	}

	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE ` + baseWhere + `
		ORDER BY a.employee_id, a.date, a.work_schedule_id, a.seq`

	return a.list(ctx, query, args...)
}

// ListByDate implements attendance.EventRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.AttendanceEvent, error) {
	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE a.date = $1
		ORDER BY a.company_id, a.employee_id, a.work_schedule_id, a.seq`

	return a.list(ctx, query, date)
}

func (a *attendanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]attendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance events: %w", err)
	}
	defer rows.Close()

	var events []attendance.AttendanceEvent
	for rows.Next() {
		ev, err := a.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}

	return events, nil
}

// scanEvent reads one row of eventColumns. Punch times are returned in the
// establishment's timezone.
func (a *attendanceRepository) scanEvent(rows pgx.Rows) (attendance.AttendanceEvent, error) {
	var (
		ev          attendance.AttendanceEvent
		entry, exit string
		name        string
		timezone    string
	)
	err := rows.Scan(
		&ev.Seq, &ev.ID, &ev.CompanyID, &ev.EmployeeID, &ev.Date, &ev.Time, &ev.Direction,
		&ev.ScheduleID, &entry, &exit, &ev.ToleranceMinutes,
		&ev.Punctuality, &ev.LateMinutes, &ev.IsHoliday, &ev.Method, &ev.Confidence, &ev.PhotoURL,
		&ev.CreatedAt, &name, &timezone,
	)
	if err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("failed to scan attendance event: %w", err)
	}

	if ev.ScheduledEntry, err = schedule.ParseTimeOfDay(entry); err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("event %s scheduled entry: %w", ev.ID, err)
	}
	if ev.ScheduledExit, err = schedule.ParseTimeOfDay(exit); err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("event %s scheduled exit: %w", ev.ID, err)
	}

	ev.Date = time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), 0, 0, 0, 0, time.UTC)
	ev.Time = ev.Time.In(a.location(timezone))
	ev.EmployeeName = &name

	return ev, nil
}

func (a *attendanceRepository) location(name string) *time.Location {
	if loc, ok := a.locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	a.locations.Store(name, loc)
	return loc
}
