package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
)

// OpenSessionFinder reconciles one date and returns the sessions that have an
// entry but no exit.
type OpenSessionFinder interface {
	FindOpenSessions(ctx context.Context, date time.Time) ([]report.OpenSession, error)
}

// sweepAfterHourUTC delays the sweep of a date until every timezone has
// finished it.
const sweepAfterHourUTC = 12

type AttendanceJobs struct {
	finder   OpenSessionFinder
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastSwept time.Time
}

func NewAttendanceJobs(finder OpenSessionFinder, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AttendanceJobs{
		finder:   finder,
		interval: interval,
		now:      time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sweep_open_sessions", j.interval, j.SweepOpenSessions)
}

// SweepOpenSessions reports the previous UTC date's sessions that never got
// an exit. Each date is swept once; the sweep only reads events.
func (j *AttendanceJobs) SweepOpenSessions(ctx context.Context) error {
	now := j.now().UTC()
	if now.Hour() < sweepAfterHourUTC {
		return nil
	}
	date := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastSwept.Equal(date) {
		return nil
	}

	slog.Info("Cron: Starting open session sweep", "date", date.Format("2006-01-02"))

	open, err := j.finder.FindOpenSessions(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to find open sessions: %w", err)
	}

	for _, s := range open {
		slog.Warn("Cron: Employee has no exit punch",
			"company_id", s.CompanyID,
			"employee_id", s.EmployeeID,
			"employee_name", s.EmployeeName,
			"date", s.Date.Format("2006-01-02"),
			"schedule_id", s.ScheduleID,
			"entry_time", s.EntryTime.Format(time.RFC3339))
	}
	metrics.UpdateOpenSessions(len(open))
	j.lastSwept = date

	slog.Info("Cron: Open session sweep completed", "date", date.Format("2006-01-02"), "open_sessions", len(open))
	return nil
}
