package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type employeeScheduleAssignmentRepository struct {
	db *database.DB
}

func NewEmployeeScheduleAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &employeeScheduleAssignmentRepository{db: db}
}

// ListCovering implements schedule.AssignmentRepository.
func (e *employeeScheduleAssignmentRepository) ListCovering(ctx context.Context, companyID, employeeID string, date time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT esa.id, esa.employee_id, esa.work_schedule_id, esa.start_date, esa.end_date,
			esa.created_at, esa.updated_at,
			ws.id, ws.company_id, ws.establishment_id, ws.name,
			ws.entry_time::text, ws.exit_time::text, ws.tolerance_minutes, ws.weekdays::int[],
			ws.created_at, ws.updated_at
		FROM employee_schedule_assignments esa
		JOIN employees e ON e.id = esa.employee_id
		JOIN work_schedules ws ON ws.id = esa.work_schedule_id
		WHERE esa.employee_id = $1
		  AND e.company_id = $2
		  AND esa.start_date <= $3
		  AND (esa.end_date IS NULL OR esa.end_date >= $3)
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule assignments: %w", err)
	}
	defer rows.Close()

	var assignments []schedule.Assignment
	for rows.Next() {
		var (
			a           schedule.Assignment
			entry, exit string
			weekdays    []int32
		)
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.ScheduleID, &a.EffectiveFrom, &a.EffectiveTo,
			&a.CreatedAt, &a.UpdatedAt,
			&a.Schedule.ID, &a.Schedule.CompanyID, &a.Schedule.EstablishmentID, &a.Schedule.Name,
			&entry, &exit, &a.Schedule.ToleranceMinutes, &weekdays,
			&a.Schedule.CreatedAt, &a.Schedule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}

		if a.Schedule.EntryTime, err = schedule.ParseTimeOfDay(entry); err != nil {
			return nil, fmt.Errorf("schedule %s entry time: %w", a.Schedule.ID, err)
		}
		if a.Schedule.ExitTime, err = schedule.ParseTimeOfDay(exit); err != nil {
			return nil, fmt.Errorf("schedule %s exit time: %w", a.Schedule.ID, err)
		}
		a.Schedule.Weekdays = make([]int, len(weekdays))
		for i, d := range weekdays {
			a.Schedule.Weekdays[i] = int(d)
		}

		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule assignments: %w", err)
	}

	return assignments, nil
}
