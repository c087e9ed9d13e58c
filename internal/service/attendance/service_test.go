package attendance

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== FAKES ====================

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeEventRepo struct {
	mu        sync.Mutex
	events    []attendance.AttendanceEvent
	createErr error
	creates   int
}

func (f *fakeEventRepo) Create(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return attendance.AttendanceEvent{}, f.createErr
	}
	event.Seq = int64(len(f.events) + 1)
	event.CreatedAt = event.Time
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeEventRepo) ListByKey(ctx context.Context, companyID string, key attendance.Key) ([]attendance.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.AttendanceEvent
	for _, ev := range f.events {
		if ev.CompanyID == companyID && ev.Key().String() == key.String() {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) ([]attendance.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.AttendanceEvent
	for _, ev := range f.events {
		if ev.CompanyID == companyID && ev.EmployeeID == employeeID && ev.Date.Equal(date) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Query(ctx context.Context, companyID string, q attendance.EventQuery) ([]attendance.AttendanceEvent, error) {
	return nil, errors.New("not used")
}

func (f *fakeEventRepo) ListByDate(ctx context.Context, date time.Time) ([]attendance.AttendanceEvent, error) {
	return nil, errors.New("not used")
}

// mutexLocker serializes every key on one mutex.
type mutexLocker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *mutexLocker) WithLock(ctx context.Context, key attendance.Key, fn func(ctx context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return fn(ctx)
}

type fakeResolver struct {
	schedule schedule.Schedule
	err      error
}

func (f fakeResolver) Resolve(ctx context.Context, companyID, employeeID string, date time.Time) (schedule.Schedule, error) {
	return f.schedule, f.err
}

type fakeCalendar struct {
	holiday bool
	civic   bool
	err     error
}

func (f fakeCalendar) IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error) {
	return f.holiday, f.err
}

func (f fakeCalendar) IsCivicDay(ctx context.Context, date time.Time) (bool, error) {
	return f.civic, nil
}

type fakeVerifier struct {
	result verification.Result
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, req verification.Request) (verification.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeFileService struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeFileService) UploadPunchPhoto(ctx context.Context, employeeID string, date time.Time, photo []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	p := "attendance/" + date.Format("2006-01-02") + "/" + employeeID + ".jpg"
	f.uploaded = append(f.uploaded, p)
	return p, nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFileService) GetFileURL(path string) string {
	return "http://files/" + path
}

// ==================== FIXTURE ====================

var scope = identity.Scope{CompanyID: "company-1", UserID: "user-1"}

const (
	empID         = "0195f3a0-7c1e-7a2b-9c3d-4e5f60718293"
	resignedEmpID = "0195f3a0-7c1e-7a2b-9c3d-4e5f60718294"
	unknownEmpID  = "0195f3a0-7c1e-7a2b-9c3d-4e5f60718295"
)

type fixture struct {
	svc      *AttendanceServiceImpl
	events   *fakeEventRepo
	locker   *mutexLocker
	verifier *fakeVerifier
	files    *fakeFileService
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		events:   &fakeEventRepo{},
		locker:   &mutexLocker{},
		verifier: &fakeVerifier{result: verification.Result{Matched: true, Confidence: 0.93}},
		files:    &fakeFileService{},
		// Monday 2026-03-02 08:20 UTC
		clock: time.Date(2026, 3, 2, 8, 20, 0, 0, time.UTC),
	}
	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		empID: {
			ID: empID, CompanyID: "company-1", FullName: "Budi Santoso",
			EmploymentStatus: employee.EmploymentStatusActive, Timezone: "UTC",
		},
		resignedEmpID: {
			ID: resignedEmpID, CompanyID: "company-1", FullName: "Former Staff",
			EmploymentStatus: employee.EmploymentStatusResigned, Timezone: "UTC",
		},
	}}
	resolver := fakeResolver{schedule: schedule.Schedule{
		ID:               "sched-day",
		EntryTime:        schedule.NewTimeOfDay(8, 0),
		ExitTime:         schedule.NewTimeOfDay(17, 0),
		ToleranceMinutes: 15,
		Weekdays:         []int{1, 2, 3, 4, 5},
	}}
	f.svc = NewAttendanceService(employees, f.events, f.locker, resolver, fakeCalendar{}, f.verifier, f.files)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func traditional(employeeID string) attendance.RegisterRequest {
	return attendance.RegisterRequest{EmployeeID: employeeID, Method: attendance.MethodTraditional}
}

func facial(employeeID string) attendance.RegisterRequest {
	return attendance.RegisterRequest{
		EmployeeID: employeeID,
		Method:     attendance.MethodFacial,
		Payload:    attendance.VerificationPayload{Sample: []byte("face-bytes")},
	}
}

// ==================== TESTS ====================

func TestRegister_EntryThenExit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, scope, traditional(empID))
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionEntry, res.Direction)
	assert.Equal(t, attendance.PunctualityLate, res.Punctuality)
	require.NotNil(t, res.LateMinutes)
	assert.Equal(t, 5, *res.LateMinutes)
	assert.Equal(t, "Budi Santoso", res.EmployeeDisplayName)
	assert.Equal(t, "2026-03-02", res.Date)
	assert.Equal(t, "sched-day", res.ScheduleID)
	assert.False(t, res.IsHoliday)
	assert.Nil(t, res.Confidence)

	f.clock = time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC)
	res, err = f.svc.Register(ctx, scope, traditional(empID))
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionExit, res.Direction)
	assert.Equal(t, attendance.PunctualityEarly, res.Punctuality)
	assert.Nil(t, res.LateMinutes)

	require.Len(t, f.events.events, 2)
	stored := f.events.events[1]
	assert.Equal(t, attendance.PunctualityNotApplicable, stored.Punctuality)
	assert.Nil(t, stored.LateMinutes)
	assert.Equal(t, schedule.NewTimeOfDay(8, 0), stored.ScheduledEntry)
	assert.Equal(t, 15, stored.ToleranceMinutes)
	assert.NotEmpty(t, stored.ID)
}

func TestRegister_AlreadyCompleteWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, scope, traditional(empID))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, scope, traditional(empID))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, scope, facial(empID))
	assert.ErrorIs(t, err, attendance.ErrAlreadyComplete)
	assert.Len(t, f.events.events, 2)
	assert.Equal(t, 0, f.verifier.calls, "rejected before verification")
}

func TestRegister_ExplicitDirectionBypassesInference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Register(ctx, scope, traditional(empID))
		require.NoError(t, err)
	}

	exit := attendance.DirectionExit
	req := traditional(empID)
	req.Direction = &exit
	res, err := f.svc.Register(ctx, scope, req)
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionExit, res.Direction)
	assert.Len(t, f.events.events, 3)
}

func TestRegister_EmployeeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, scope, traditional(unknownEmpID))
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
	assert.True(t, attendance.IsValidation(err))

	_, err = f.svc.Register(ctx, scope, traditional(resignedEmpID))
	assert.ErrorIs(t, err, attendance.ErrEmployeeInactive)
	assert.True(t, attendance.IsValidation(err))

	_, err = f.svc.Register(ctx, identity.Scope{CompanyID: "company-2"}, traditional(empID))
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)

	_, err = f.svc.Register(ctx, scope, attendance.RegisterRequest{EmployeeID: empID, Method: "password"})
	assert.True(t, attendance.IsValidation(err))

	_, err = f.svc.Register(ctx, scope, traditional("abc"))
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_id")

	assert.Empty(t, f.events.events)
}

func TestRegister_NoActiveSchedule(t *testing.T) {
	f := newFixture(t)
	f.svc.resolver = fakeResolver{err: schedule.ErrNoActiveSchedule}

	_, err := f.svc.Register(context.Background(), scope, traditional(empID))
	assert.ErrorIs(t, err, schedule.ErrNoActiveSchedule)
	assert.Empty(t, f.events.events)
}

func TestRegister_HolidayEntryHasNoLateness(t *testing.T) {
	f := newFixture(t)
	f.svc.calendar = fakeCalendar{civic: true}

	res, err := f.svc.Register(context.Background(), scope, traditional(empID))
	require.NoError(t, err)
	assert.True(t, res.IsHoliday)
	assert.Equal(t, attendance.PunctualityNotApplicable, res.Punctuality)
	assert.Nil(t, res.LateMinutes)
	assert.True(t, f.events.events[0].IsHoliday)
}

func TestRegister_HolidayLookupFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.svc.calendar = fakeCalendar{err: errors.New("calendar offline")}

	res, err := f.svc.Register(context.Background(), scope, traditional(empID))
	require.NoError(t, err)
	assert.False(t, res.IsHoliday)
	require.NotNil(t, res.LateMinutes)
	assert.Equal(t, 5, *res.LateMinutes)
}

func TestRegister_BiometricMatch(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 7, 50, 0, 0, time.UTC)

	res, err := f.svc.Register(context.Background(), scope, facial(empID))
	require.NoError(t, err)
	assert.Equal(t, 1, f.verifier.calls)
	assert.Equal(t, attendance.PunctualityEarly, res.Punctuality)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.93, *res.Confidence, 1e-9)
	assert.Equal(t, attendance.MethodFacial, f.events.events[0].Method)
}

func TestRegister_VerificationFailure(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = verification.Result{Matched: false, Confidence: 0.41, Message: "face mismatch"}

	_, err := f.svc.Register(context.Background(), scope, facial(empID))
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrVerificationFailed)

	var verr *attendance.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.InDelta(t, 0.41, verr.Confidence, 1e-9)
	assert.Equal(t, "face mismatch", verr.Message)
	assert.False(t, attendance.IsRetryable(err))
	assert.Empty(t, f.events.events)
}

func TestRegister_VerifierUnavailable(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = context.DeadlineExceeded

	_, err := f.svc.Register(context.Background(), scope, facial(empID))
	assert.ErrorIs(t, err, attendance.ErrVerifierUnavailable)
	assert.True(t, attendance.IsRetryable(err))
	assert.Equal(t, 0, f.locker.calls)
	assert.Empty(t, f.events.events)
}

func TestRegister_PersistenceFailureRemovesPhoto(t *testing.T) {
	f := newFixture(t)
	f.events.createErr = errors.New("connection reset")
	req := traditional(empID)
	req.Payload.Photo = []byte("jpeg")

	_, err := f.svc.Register(context.Background(), scope, req)
	assert.ErrorIs(t, err, attendance.ErrPersistence)
	assert.Equal(t, 1, f.events.creates)
	assert.Equal(t, f.files.uploaded, f.files.deleted)
}

func TestRegister_LockTimeout(t *testing.T) {
	f := newFixture(t)
	f.locker.err = attendance.ErrLockTimeout

	_, err := f.svc.Register(context.Background(), scope, traditional(empID))
	assert.ErrorIs(t, err, attendance.ErrLockTimeout)
	assert.True(t, attendance.IsRetryable(err))
	assert.Empty(t, f.events.events)
}

func TestRegister_PhotoURLReturned(t *testing.T) {
	f := newFixture(t)
	req := traditional(empID)
	req.Payload.Photo = []byte("jpeg")

	res, err := f.svc.Register(context.Background(), scope, req)
	require.NoError(t, err)
	require.NotNil(t, res.PhotoURL)
	assert.Equal(t, "http://files/attendance/2026-03-02/"+empID+".jpg", *res.PhotoURL)
	require.NotNil(t, f.events.events[0].PhotoURL)
	assert.Equal(t, "attendance/2026-03-02/"+empID+".jpg", *f.events.events[0].PhotoURL)
}

func TestRegister_InvalidPhotoIsValidationError(t *testing.T) {
	f := newFixture(t)
	f.files.err = file.ErrInvalidImage
	req := traditional(empID)
	req.Payload.Photo = []byte("garbage")

	_, err := f.svc.Register(context.Background(), scope, req)
	assert.True(t, attendance.IsValidation(err))
}

func TestRegister_LocalDateFollowsEmployeeTimezone(t *testing.T) {
	f := newFixture(t)
	emp := f.svc.employeeRepo.(*fakeEmployeeRepo).employees[empID]
	emp.Timezone = "Asia/Jakarta"
	f.svc.employeeRepo.(*fakeEmployeeRepo).employees[empID] = emp
	// 2026-03-01 23:30 UTC is 06:30 on Monday 2026-03-02 in Jakarta.
	f.clock = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	res, err := f.svc.Register(context.Background(), scope, traditional(empID))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", res.Date)
	assert.Equal(t, attendance.PunctualityEarly, res.Punctuality)
}

func TestRegister_UnknownTimezoneFallsBackToUTCAndWarns(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f := newFixture(t)
	emp := f.svc.employeeRepo.(*fakeEmployeeRepo).employees[empID]
	emp.Timezone = "Mars/Olympus_Mons"
	f.svc.employeeRepo.(*fakeEmployeeRepo).employees[empID] = emp
	f.clock = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	res, err := f.svc.Register(context.Background(), scope, traditional(empID))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", res.Date)

	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"employee_id":"`+empID+`"`)
	assert.Contains(t, logs.String(), `"timezone":"Mars/Olympus_Mons"`)
}

func TestRegister_ConcurrentSameKeyYieldsOneEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Register(ctx, scope, traditional(empID))
		}()
	}
	wg.Wait()

	var entries, exits, complete int
	for _, ev := range f.events.events {
		if ev.Direction == attendance.DirectionEntry {
			entries++
		} else {
			exits++
		}
	}
	for _, err := range errs {
		if errors.Is(err, attendance.ErrAlreadyComplete) {
			complete++
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, exits)
	assert.Equal(t, 1, complete)
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, scope, traditional(empID))
	require.NoError(t, err)

	events, err := f.svc.ListEvents(ctx, scope, attendance.EventListFilter{EmployeeID: empID, Date: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, attendance.DirectionEntry, events[0].Direction)
	assert.Equal(t, "08:00", events[0].ScheduledEntry)
	assert.Equal(t, "17:00", events[0].ScheduledExit)

	_, err = f.svc.ListEvents(ctx, scope, attendance.EventListFilter{EmployeeID: empID, Date: "02/03/2026"})
	assert.True(t, attendance.IsValidation(err))
}

func TestInferDirection(t *testing.T) {
	entry := attendance.AttendanceEvent{Direction: attendance.DirectionEntry}
	exit := attendance.AttendanceEvent{Direction: attendance.DirectionExit}

	d, err := inferDirection(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionEntry, d)

	d, err = inferDirection([]attendance.AttendanceEvent{entry, entry}, nil)
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionExit, d)

	// A stray exit without entry still needs an entry.
	d, err = inferDirection([]attendance.AttendanceEvent{exit}, nil)
	require.NoError(t, err)
	assert.Equal(t, attendance.DirectionEntry, d)

	_, err = inferDirection([]attendance.AttendanceEvent{entry, exit}, nil)
	assert.ErrorIs(t, err, attendance.ErrAlreadyComplete)
}
