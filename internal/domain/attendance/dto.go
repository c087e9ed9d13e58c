package attendance

import (
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ========================================
// REGISTRATION DTOs
// ========================================

type RegisterRequest struct {
	EmployeeID string              `json:"employee_id"`
	Direction  *Direction          `json:"direction,omitempty"`
	Method     Method              `json:"method"`
	Payload    VerificationPayload `json:"payload"`
}

// VerificationPayload carries the biometric sample. Byte fields are base64 in JSON.
type VerificationPayload struct {
	SampleType string `json:"sample_type,omitempty"`
	Sample     []byte `json:"sample,omitempty"`
	Photo      []byte `json:"photo,omitempty"`
}

const maxPhotoSize = 10 << 20 // 10MB

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if r.Direction != nil {
		normalized := Direction(strings.ToUpper(string(*r.Direction)))
		if !validator.IsInSlice(string(normalized), DirectionValues) {
			errs = append(errs, validator.ValidationError{
				Field:   "direction",
				Message: "direction must be one of: ENTRY, EXIT",
			})
		} else {
			r.Direction = &normalized
		}
	}

	r.Method = Method(strings.ToLower(string(r.Method)))
	if !validator.IsInSlice(string(r.Method), MethodValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: "method must be one of: facial, fingerprint, traditional",
		})
	} else if sampleType, biometric := r.Method.SampleType(); biometric {
		if len(r.Payload.Sample) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "payload.sample",
				Message: "a biometric sample is required for " + string(r.Method) + " registration",
			})
		}
		if r.Payload.SampleType != "" && r.Payload.SampleType != string(sampleType) {
			errs = append(errs, validator.ValidationError{
				Field:   "payload.sample_type",
				Message: "sample_type must be " + string(sampleType) + " for " + string(r.Method) + " registration",
			})
		}
	}

	if len(r.Payload.Photo) > maxPhotoSize {
		errs = append(errs, validator.ValidationError{
			Field:   "payload.photo",
			Message: "photo size must not exceed 10MB",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RegistrationResult struct {
	EventID             string      `json:"event_id"`
	EmployeeID          string      `json:"employee_id"`
	EmployeeDisplayName string      `json:"employee_display_name"`
	Date                string      `json:"date"`
	Time                string      `json:"time"`
	Direction           Direction   `json:"direction"`
	ScheduleID          string      `json:"schedule_id"`
	Punctuality         Punctuality `json:"punctuality"`
	LateMinutes         *int        `json:"late_minutes,omitempty"`
	IsHoliday           bool        `json:"is_holiday"`
	Method              Method      `json:"method"`
	Confidence          *float64    `json:"confidence,omitempty"`
	PhotoURL            *string     `json:"photo_url,omitempty"`
}

// ========================================
// EVENT LOG DTOs
// ========================================

type EventListFilter struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
}

func (f *EventListFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidUUID(f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if _, valid := validator.IsValidDate(f.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EventResponse struct {
	ID               string      `json:"id"`
	EmployeeID       string      `json:"employee_id"`
	Date             string      `json:"date"`
	Time             string      `json:"time"`
	Direction        Direction   `json:"direction"`
	ScheduleID       string      `json:"schedule_id"`
	ScheduledEntry   string      `json:"scheduled_entry"`
	ScheduledExit    string      `json:"scheduled_exit"`
	ToleranceMinutes int         `json:"tolerance_minutes"`
	Punctuality      Punctuality `json:"punctuality"`
	LateMinutes      *int        `json:"late_minutes,omitempty"`
	IsHoliday        bool        `json:"is_holiday"`
	Method           Method      `json:"method"`
	PhotoURL         *string     `json:"photo_url,omitempty"`
	CreatedAt        string      `json:"created_at"`
}
