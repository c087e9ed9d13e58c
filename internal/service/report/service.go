package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	eventRepo    attendance.EventRepository
	calendar     holiday.Calendar
	maxRangeDays int
	workers      int
	now          func() time.Time
}

func NewReportService(eventRepo attendance.EventRepository, calendar holiday.Calendar, maxRangeDays, workers int) *ReportServiceImpl {
	if workers < 1 {
		workers = 1
	}
	return &ReportServiceImpl{
		eventRepo:    eventRepo,
		calendar:     calendar,
		maxRangeDays: maxRangeDays,
		workers:      workers,
		now:          time.Now,
	}
}

// GenerateHoursReport recomputes every session in range from the raw events.
func (s *ReportServiceImpl) GenerateHoursReport(ctx context.Context, scope identity.Scope, req report.HoursReportRequest) (report.HoursReport, error) {
	start := s.now()

	from, to, err := req.Validate(s.maxRangeDays)
	if err != nil {
		return report.HoursReport{}, err
	}

	events, err := s.eventRepo.Query(ctx, scope.CompanyID, attendance.EventQuery{
		DateFrom:        from,
		DateTo:          to,
		SiteID:          req.SiteID,
		EstablishmentID: req.EstablishmentID,
		EmployeeIDs:     req.EmployeeIDs,
	})
	if err != nil {
		return report.HoursReport{}, fmt.Errorf("%w: %w", report.ErrReportGenerationFailed, err)
	}

	sessions := Reconcile(events)
	holidays := s.lookupHolidays(ctx, scope.CompanyID, sessions)

	rows := make([]report.HoursRow, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range sessions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sess := sessions[i]
			isHoliday, known := holidays[dateKey(sess.Key.Date)]
			if !known {
				isHoliday = storedHolidayFlag(sess)
			}
			rows[i] = buildRow(sess, isHoliday)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.HoursReport{}, err
	}

	result := report.HoursReport{
		DateFrom:    from.Format("2006-01-02"),
		DateTo:      to.Format("2006-01-02"),
		GeneratedAt: s.now().Format(time.RFC3339),
		Rows:        rows,
		Totals:      totals(rows),
	}

	for _, row := range rows {
		metrics.RecordReportSession(string(row.Status))
	}
	metrics.RecordReportLatency(float64(s.now().Sub(start).Milliseconds()))

	return result, nil
}

// lookupHolidays resolves each distinct session date once. Dates whose lookup
// failed are left out so callers fall back to the flag stored at registration.
func (s *ReportServiceImpl) lookupHolidays(ctx context.Context, companyID string, sessions []Session) map[string]bool {
	seen := make(map[string]time.Time)
	for _, sess := range sessions {
		seen[dateKey(sess.Key.Date)] = sess.Key.Date
	}
	dates := make([]string, 0, len(seen))
	for k := range seen {
		dates = append(dates, k)
	}
	sort.Strings(dates)

	results := make([]bool, len(dates))
	failed := make([]bool, len(dates))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, k := range dates {
		g.Go(func() error {
			isHoliday, err := holiday.IsNonWorking(ctx, s.calendar, seen[k], companyID)
			if err != nil {
				failed[i] = true
				metrics.RecordHolidayLookupError()
				slog.Warn("holiday lookup failed, using stored flag",
					"company_id", companyID,
					"date", k,
					"error", err)
				return nil
			}
			results[i] = isHoliday
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(dates))
	for i, k := range dates {
		if !failed[i] {
			out[k] = results[i]
		}
	}
	return out
}

// FindOpenSessions reconciles one date across all companies.
func (s *ReportServiceImpl) FindOpenSessions(ctx context.Context, date time.Time) ([]report.OpenSession, error) {
	events, err := s.eventRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", date.Format("2006-01-02"), err)
	}

	var open []report.OpenSession
	for _, sess := range Reconcile(events) {
		if !sess.IsOpen() {
			continue
		}
		open = append(open, report.OpenSession{
			CompanyID:    sess.CompanyID,
			EmployeeID:   sess.Key.EmployeeID,
			EmployeeName: employeeName(sess),
			Date:         sess.Key.Date,
			ScheduleID:   sess.Key.ScheduleID,
			EntryTime:    sess.Entry.Time,
		})
	}
	return open, nil
}

func buildRow(sess Session, isHoliday bool) report.HoursRow {
	weekday := schedule.ISOWeekday(sess.Key.Date)
	b := ClassifyHours(sess, isHoliday, weekday)

	row := report.HoursRow{
		EmployeeID:       sess.Key.EmployeeID,
		EmployeeName:     employeeName(sess),
		Date:             sess.Key.Date.Format("2006-01-02"),
		Weekday:          weekday,
		ScheduleID:       sess.Key.ScheduleID,
		ScheduledEntry:   sess.ScheduledEntry.String(),
		ScheduledExit:    sess.ScheduledExit.String(),
		ToleranceMinutes: sess.ToleranceMinutes,
		IsHoliday:        isHoliday,
		Status:           sess.Status(),
		Worked:           b.Worked,
		Regular:          b.Regular,
		Overtime:         b.Overtime,
		Sunday:           b.Sunday,
		Holiday:          b.Holiday,
	}

	if sess.Entry != nil {
		t := sess.Entry.Time.Format("15:04:05")
		row.EntryTime = &t
		// Lateness does not apply on holidays even if the registration missed it.
		if !isHoliday {
			p := string(sess.Entry.Punctuality)
			row.Punctuality = &p
			row.LateMinutes = sess.Entry.LateMinutes
		}
	}
	if sess.Exit != nil {
		t := sess.Exit.Time.Format("15:04:05")
		row.ExitTime = &t
	}
	return row
}

func totals(rows []report.HoursRow) report.HoursTotals {
	t := report.HoursTotals{
		Worked:   decimal.Zero,
		Regular:  decimal.Zero,
		Overtime: decimal.Zero,
		Sunday:   decimal.Zero,
		Holiday:  decimal.Zero,
	}
	for _, r := range rows {
		t.Sessions++
		switch r.Status {
		case report.StatusComplete:
			t.CompleteSessions++
		case report.StatusOpen:
			t.OpenSessions++
		default:
			t.InvalidSessions++
		}
		if r.LateMinutes != nil && *r.LateMinutes > 0 {
			t.LateEntries++
			t.LateMinutes += *r.LateMinutes
		}
		t.Worked = t.Worked.Add(r.Worked)
		t.Regular = t.Regular.Add(r.Regular)
		t.Overtime = t.Overtime.Add(r.Overtime)
		t.Sunday = t.Sunday.Add(r.Sunday)
		t.Holiday = t.Holiday.Add(r.Holiday)
	}
	return t
}

func storedHolidayFlag(sess Session) bool {
	if sess.Entry != nil {
		return sess.Entry.IsHoliday
	}
	return sess.Exit != nil && sess.Exit.IsHoliday
}

func employeeName(sess Session) string {
	for _, ev := range []*attendance.AttendanceEvent{sess.Entry, sess.Exit} {
		if ev != nil && ev.EmployeeName != nil {
			return *ev.EmployeeName
		}
	}
	return ""
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
