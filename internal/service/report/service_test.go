package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	attendance.EventRepository

	events    []attendance.AttendanceEvent
	err       error
	lastQuery attendance.EventQuery
	queried   bool
}

func (f *fakeEventRepo) Query(ctx context.Context, companyID string, q attendance.EventQuery) ([]attendance.AttendanceEvent, error) {
	f.queried = true
	f.lastQuery = q
	return f.events, f.err
}

func (f *fakeEventRepo) ListByDate(ctx context.Context, date time.Time) ([]attendance.AttendanceEvent, error) {
	return f.events, f.err
}

type fakeCalendar struct {
	holidays map[string]bool
	civic    map[string]bool
	err      error
}

func (f fakeCalendar) IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.holidays[date.Format("2006-01-02")], nil
}

func (f fakeCalendar) IsCivicDay(ctx context.Context, date time.Time) (bool, error) {
	return f.civic[date.Format("2006-01-02")], nil
}

var testScope = identity.Scope{CompanyID: "company-1", UserID: "user-1"}

func TestGenerateHoursReport(t *testing.T) {
	name := "Ani Wijaya"
	repo := &fakeEventRepo{events: []attendance.AttendanceEvent{
		entry(8, 5), exit(17, 30),
		entry(8, 0, onDate(sunday)), exit(12, 0, onDate(sunday)),
		entry(8, 25, forEmployee("emp-2"), late(15)),
	}}
	for i := range repo.events {
		repo.events[i].EmployeeName = &name
	}
	svc := NewReportService(repo, fakeCalendar{holidays: map[string]bool{"2026-03-01": true}}, 31, 4)

	siteID := "0195f3a0-7c1e-7a2b-9c3d-000000000001"
	employeeIDs := []string{"0195f3a0-7c1e-7a2b-9c3d-000000000011", "0195f3a0-7c1e-7a2b-9c3d-000000000012"}
	got, err := svc.GenerateHoursReport(context.Background(), testScope, report.HoursReportRequest{
		DateFrom:    "2026-03-01",
		DateTo:      "2026-03-02",
		SiteID:      &siteID,
		EmployeeIDs: employeeIDs,
	})
	require.NoError(t, err)

	assert.Equal(t, siteID, *repo.lastQuery.SiteID)
	assert.Equal(t, employeeIDs, repo.lastQuery.EmployeeIDs)
	assert.True(t, repo.lastQuery.DateFrom.Equal(sunday))
	assert.True(t, repo.lastQuery.DateTo.Equal(monday))

	require.Len(t, got.Rows, 3)

	weekday := got.Rows[0]
	assert.Equal(t, "2026-03-02", weekday.Date)
	assert.Equal(t, "08:05:00", *weekday.EntryTime)
	assert.Equal(t, "17:30:00", *weekday.ExitTime)
	assert.Equal(t, "08:00", weekday.ScheduledEntry)
	assert.Equal(t, 10, weekday.ToleranceMinutes)
	assert.Equal(t, report.StatusComplete, weekday.Status)
	assertDecimal(t, "9", weekday.Regular, "regular")
	assertDecimal(t, "0.42", weekday.Overtime, "overtime")
	assert.Equal(t, "Ani Wijaya", weekday.EmployeeName)

	holiday := got.Rows[1]
	assert.True(t, holiday.IsHoliday)
	assertDecimal(t, "4", holiday.Holiday, "holiday")
	assertDecimal(t, "0", holiday.Sunday, "sunday")
	assert.Nil(t, holiday.LateMinutes)

	open := got.Rows[2]
	assert.Equal(t, report.StatusOpen, open.Status)
	assert.Nil(t, open.ExitTime)
	require.NotNil(t, open.LateMinutes)
	assert.Equal(t, 15, *open.LateMinutes)

	assert.Equal(t, 3, got.Totals.Sessions)
	assert.Equal(t, 2, got.Totals.CompleteSessions)
	assert.Equal(t, 1, got.Totals.OpenSessions)
	assert.Equal(t, 1, got.Totals.LateEntries)
	assert.Equal(t, 15, got.Totals.LateMinutes)
	assertDecimal(t, "13.42", got.Totals.Worked, "total worked")
	assertDecimal(t, "4", got.Totals.Holiday, "total holiday")
}

func TestGenerateHoursReport_CivicDayCountsAsHoliday(t *testing.T) {
	repo := &fakeEventRepo{events: []attendance.AttendanceEvent{entry(8, 0), exit(16, 0)}}
	svc := NewReportService(repo, fakeCalendar{civic: map[string]bool{"2026-03-02": true}}, 31, 2)

	got, err := svc.GenerateHoursReport(context.Background(), testScope, report.HoursReportRequest{DateFrom: "2026-03-02", DateTo: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.True(t, got.Rows[0].IsHoliday)
	assertDecimal(t, "8", got.Rows[0].Holiday, "holiday")
}

func TestGenerateHoursReport_HolidayLookupFailureUsesStoredFlag(t *testing.T) {
	in := entry(8, 0)
	in.IsHoliday = true
	in.LateMinutes = nil
	repo := &fakeEventRepo{events: []attendance.AttendanceEvent{in, exit(12, 0)}}
	svc := NewReportService(repo, fakeCalendar{err: errors.New("calendar down")}, 31, 2)

	got, err := svc.GenerateHoursReport(context.Background(), testScope, report.HoursReportRequest{DateFrom: "2026-03-02", DateTo: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.True(t, got.Rows[0].IsHoliday)
	assertDecimal(t, "4", got.Rows[0].Holiday, "holiday")
}

func TestGenerateHoursReport_ValidationBeforeQuery(t *testing.T) {
	tests := []struct {
		name  string
		req   report.HoursReportRequest
		field string
	}{
		{name: "missing from", req: report.HoursReportRequest{DateTo: "2026-03-02"}, field: "date_from"},
		{name: "malformed to", req: report.HoursReportRequest{DateFrom: "2026-03-02", DateTo: "02-03-2026"}, field: "date_to"},
		{name: "inverted range", req: report.HoursReportRequest{DateFrom: "2026-03-05", DateTo: "2026-03-02"}, field: "date_to"},
		{name: "range too large", req: report.HoursReportRequest{DateFrom: "2026-01-01", DateTo: "2026-03-02"}, field: "date_to"},
		{name: "blank employee id", req: report.HoursReportRequest{DateFrom: "2026-03-01", DateTo: "2026-03-02", EmployeeIDs: []string{""}}, field: "employee_ids[0]"},
		{name: "malformed employee id", req: report.HoursReportRequest{DateFrom: "2026-03-01", DateTo: "2026-03-02", EmployeeIDs: []string{"0195f3a0-7c1e-7a2b-9c3d-000000000011", "abc"}}, field: "employee_ids[1]"},
		{name: "malformed site id", req: report.HoursReportRequest{DateFrom: "2026-03-01", DateTo: "2026-03-02", SiteID: ptr("site-1")}, field: "site_id"},
		{name: "malformed establishment id", req: report.HoursReportRequest{DateFrom: "2026-03-01", DateTo: "2026-03-02", EstablishmentID: ptr("hq")}, field: "establishment_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeEventRepo{}
			svc := NewReportService(repo, fakeCalendar{}, 31, 2)

			_, err := svc.GenerateHoursReport(context.Background(), testScope, tt.req)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
			assert.True(t, attendance.IsValidation(err))
			assert.False(t, repo.queried)
		})
	}
}

func TestGenerateHoursReport_RepositoryError(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("connection reset")}
	svc := NewReportService(repo, fakeCalendar{}, 31, 2)

	_, err := svc.GenerateHoursReport(context.Background(), testScope, report.HoursReportRequest{DateFrom: "2026-03-02", DateTo: "2026-03-02"})
	assert.ErrorIs(t, err, report.ErrReportGenerationFailed)
}

func TestFindOpenSessions(t *testing.T) {
	repo := &fakeEventRepo{events: []attendance.AttendanceEvent{
		entry(8, 0), exit(17, 0),
		entry(8, 30, forEmployee("emp-2")),
		exit(17, 0, forEmployee("emp-3")),
	}}
	svc := NewReportService(repo, fakeCalendar{}, 31, 2)

	open, err := svc.FindOpenSessions(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "emp-2", open[0].EmployeeID)
	assert.Equal(t, "company-1", open[0].CompanyID)
	assert.Equal(t, 30, open[0].EntryTime.Minute())
}
