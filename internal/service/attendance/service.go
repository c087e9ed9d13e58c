package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/verification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/file"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	eventRepo    attendance.EventRepository
	locker       attendance.KeyLocker
	resolver     schedule.Resolver
	calendar     holiday.Calendar
	verifier     verification.Verifier
	fileService  file.FileService
	now          func() time.Time
}

func NewAttendanceService(
	employeeRepo employee.EmployeeRepository,
	eventRepo attendance.EventRepository,
	locker attendance.KeyLocker,
	resolver schedule.Resolver,
	calendar holiday.Calendar,
	verifier verification.Verifier,
	fileService file.FileService,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		employeeRepo: employeeRepo,
		eventRepo:    eventRepo,
		locker:       locker,
		resolver:     resolver,
		calendar:     calendar,
		verifier:     verifier,
		fileService:  fileService,
		now:          time.Now,
	}
}

// Register records one punch. Verification and photo storage run before the
// key lock is taken; direction is decided again under the lock.
func (s *AttendanceServiceImpl) Register(ctx context.Context, scope identity.Scope, req attendance.RegisterRequest) (result attendance.RegistrationResult, err error) {
	start := s.now()
	direction := "unknown"
	defer func() {
		metrics.RecordRegistration(direction, string(req.Method), registrationOutcome(err))
		metrics.RecordRegistrationLatency(float64(s.now().Sub(start).Milliseconds()))
	}()

	if err := req.Validate(); err != nil {
		return attendance.RegistrationResult{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, scope.CompanyID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.RegistrationResult{}, attendance.ErrEmployeeNotFound
		}
		return attendance.RegistrationResult{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive() {
		return attendance.RegistrationResult{}, attendance.ErrEmployeeInactive
	}

	loc, err := time.LoadLocation(emp.Timezone)
	if err != nil {
		slog.Warn("Unknown establishment timezone, using UTC",
			"employee_id", emp.ID,
			"timezone", emp.Timezone,
			"error", err)
		loc = time.UTC
	}
	nowLocal := s.now().In(loc)
	date := calendarDate(nowLocal)

	sched, err := s.resolver.Resolve(ctx, scope.CompanyID, emp.ID, date)
	if err != nil {
		return attendance.RegistrationResult{}, err
	}

	isHoliday := s.holidayStatus(ctx, scope.CompanyID, date)
	key := attendance.Key{EmployeeID: emp.ID, Date: date, ScheduleID: sched.ID}

	// Fail fast before any network call; the decision is repeated under the lock.
	existing, err := s.eventRepo.ListByKey(ctx, scope.CompanyID, key)
	if err != nil {
		return attendance.RegistrationResult{}, fmt.Errorf("%w: %w", attendance.ErrPersistence, err)
	}
	if _, err := inferDirection(existing, req.Direction); err != nil {
		return attendance.RegistrationResult{}, err
	}

	confidence, err := s.verify(ctx, emp.ID, req)
	if err != nil {
		return attendance.RegistrationResult{}, err
	}

	var photoPath *string
	if len(req.Payload.Photo) > 0 {
		p, err := s.fileService.UploadPunchPhoto(ctx, emp.ID, date, req.Payload.Photo)
		if err != nil {
			if errors.Is(err, file.ErrInvalidImage) {
				return attendance.RegistrationResult{}, fmt.Errorf("%w: %w", attendance.ErrValidation, err)
			}
			return attendance.RegistrationResult{}, fmt.Errorf("%w: %w", attendance.ErrPersistence, err)
		}
		photoPath = &p
	}

	var created attendance.AttendanceEvent
	var exitPunctuality attendance.Punctuality
	lockRequested := s.now()
	err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		metrics.RecordLockWait(float64(s.now().Sub(lockRequested).Milliseconds()))

		events, err := s.eventRepo.ListByKey(ctx, scope.CompanyID, key)
		if err != nil {
			return fmt.Errorf("%w: %w", attendance.ErrPersistence, err)
		}
		dir, err := inferDirection(events, req.Direction)
		if err != nil {
			return err
		}

		event := attendance.AttendanceEvent{
			ID:               uuid.Must(uuid.NewV7()).String(),
			CompanyID:        scope.CompanyID,
			EmployeeID:       emp.ID,
			Date:             date,
			Time:             nowLocal,
			Direction:        dir,
			ScheduleID:       sched.ID,
			ScheduledEntry:   sched.EntryTime,
			ScheduledExit:    sched.ExitTime,
			ToleranceMinutes: sched.ToleranceMinutes,
			Punctuality:      attendance.PunctualityNotApplicable,
			IsHoliday:        isHoliday,
			Method:           req.Method,
			Confidence:       confidence,
			PhotoURL:         photoPath,
		}
		if dir == attendance.DirectionEntry && !isHoliday {
			c := ClassifyEntry(sched.EntryTime, sched.ToleranceMinutes, nowLocal)
			event.Punctuality = c.Punctuality
			event.LateMinutes = &c.MinutesLate
		}
		if dir == attendance.DirectionExit {
			exitPunctuality = ClassifyExit(sched.EntryTime, sched.ExitTime, sched.ToleranceMinutes, nowLocal)
		}

		created, err = s.eventRepo.Create(ctx, event)
		if err != nil {
			return fmt.Errorf("%w: %w", attendance.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		if photoPath != nil {
			if delErr := s.fileService.DeleteFile(ctx, *photoPath); delErr != nil {
				slog.Warn("failed to remove punch photo after rejected registration",
					"employee_id", emp.ID,
					"path", *photoPath,
					"error", delErr)
			}
		}
		return attendance.RegistrationResult{}, err
	}
	direction = string(created.Direction)

	result = attendance.RegistrationResult{
		EventID:             created.ID,
		EmployeeID:          emp.ID,
		EmployeeDisplayName: emp.FullName,
		Date:                date.Format("2006-01-02"),
		Time:                nowLocal.Format(time.RFC3339),
		Direction:           created.Direction,
		ScheduleID:          sched.ID,
		Punctuality:         created.Punctuality,
		LateMinutes:         created.LateMinutes,
		IsHoliday:           isHoliday,
		Method:              req.Method,
		Confidence:          confidence,
	}
	if created.Direction == attendance.DirectionExit {
		result.Punctuality = exitPunctuality
	}
	if photoPath != nil {
		url := s.fileService.GetFileURL(*photoPath)
		result.PhotoURL = &url
	}
	return result, nil
}

// ListEvents returns the punches of one employee on one date in insertion order.
func (s *AttendanceServiceImpl) ListEvents(ctx context.Context, scope identity.Scope, filter attendance.EventListFilter) ([]attendance.EventResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	date, _ := time.Parse("2006-01-02", filter.Date)

	events, err := s.eventRepo.ListByEmployeeAndDate(ctx, scope.CompanyID, filter.EmployeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}

	responses := make([]attendance.EventResponse, 0, len(events))
	for _, ev := range events {
		resp := attendance.EventResponse{
			ID:               ev.ID,
			EmployeeID:       ev.EmployeeID,
			Date:             ev.Date.Format("2006-01-02"),
			Time:             ev.Time.Format(time.RFC3339),
			Direction:        ev.Direction,
			ScheduleID:       ev.ScheduleID,
			ScheduledEntry:   ev.ScheduledEntry.String(),
			ScheduledExit:    ev.ScheduledExit.String(),
			ToleranceMinutes: ev.ToleranceMinutes,
			Punctuality:      ev.Punctuality,
			LateMinutes:      ev.LateMinutes,
			IsHoliday:        ev.IsHoliday,
			Method:           ev.Method,
			CreatedAt:        ev.CreatedAt.Format(time.RFC3339),
		}
		if ev.PhotoURL != nil {
			url := s.fileService.GetFileURL(*ev.PhotoURL)
			resp.PhotoURL = &url
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// verify returns nil confidence for traditional registrations.
func (s *AttendanceServiceImpl) verify(ctx context.Context, employeeID string, req attendance.RegisterRequest) (*float64, error) {
	sampleType, biometric := req.Method.SampleType()
	if !biometric {
		return nil, nil
	}

	res, err := s.verifier.Verify(ctx, verification.Request{
		EmployeeID: employeeID,
		SampleType: sampleType,
		Sample:     req.Payload.Sample,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrVerifierUnavailable, err)
	}
	if !res.Matched {
		return nil, &attendance.VerificationError{
			Method:     req.Method,
			Confidence: res.Confidence,
			Message:    res.Message,
		}
	}
	return &res.Confidence, nil
}

// holidayStatus never fails: a broken calendar means a working day.
func (s *AttendanceServiceImpl) holidayStatus(ctx context.Context, companyID string, date time.Time) bool {
	isHoliday, err := holiday.IsNonWorking(ctx, s.calendar, date, companyID)
	if err != nil {
		metrics.RecordHolidayLookupError()
		slog.Warn("holiday lookup failed, treating date as working day",
			"company_id", companyID,
			"date", date.Format("2006-01-02"),
			"error", err)
		return false
	}
	return isHoliday
}

// inferDirection honours an explicit direction. Otherwise the first punch of
// a key is ENTRY, the next is EXIT, and a third is rejected.
func inferDirection(events []attendance.AttendanceEvent, explicit *attendance.Direction) (attendance.Direction, error) {
	if explicit != nil {
		return *explicit, nil
	}

	var hasEntry, hasExit bool
	for _, ev := range events {
		switch ev.Direction {
		case attendance.DirectionEntry:
			hasEntry = true
		case attendance.DirectionExit:
			hasExit = true
		}
	}

	switch {
	case !hasEntry:
		return attendance.DirectionEntry, nil
	case !hasExit:
		return attendance.DirectionExit, nil
	default:
		return "", attendance.ErrAlreadyComplete
	}
}

// calendarDate keeps the local calendar day as a UTC midnight, which is how
// dates are stored and compared.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, attendance.ErrAlreadyComplete):
		return "already_complete"
	case errors.Is(err, schedule.ErrNoActiveSchedule):
		return "no_schedule"
	case errors.Is(err, attendance.ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, attendance.ErrVerifierUnavailable):
		return "verifier_unavailable"
	case errors.Is(err, attendance.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, attendance.ErrPersistence):
		return "persistence_error"
	case attendance.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
