package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// retryAfterSeconds is advertised on retry-safe failures.
const retryAfterSeconds = "2"

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var verificationErr *attendance.VerificationError
	if errors.As(err, &verificationErr) {
		details := map[string]string{
			"method":     string(verificationErr.Method),
			"confidence": fmt.Sprintf("%.2f", verificationErr.Confidence),
		}
		if verificationErr.Message != "" {
			details["reason"] = verificationErr.Message
		}
		Error(w, http.StatusUnprocessableEntity, "VERIFICATION_FAILED", "Biometric verification failed", details)
		return
	}

	switch {
	// Caller identity
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, jwt.ErrCompanyIDMissing), errors.Is(err, identity.ErrScopeMissing):
		Unauthorized(w, "Company scope is required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrEmployeeInactive):
		Error(w, http.StatusUnprocessableEntity, "EMPLOYEE_INACTIVE", "Employee is not active", nil)
	case errors.Is(err, attendance.ErrValidation):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, schedule.ErrNoActiveSchedule):
		Error(w, http.StatusUnprocessableEntity, "NO_ACTIVE_SCHEDULE", "No active schedule for this employee today", nil)
	case errors.Is(err, attendance.ErrAlreadyComplete):
		Conflict(w, "Entry and exit are already recorded for today's schedule")
	case errors.Is(err, attendance.ErrVerifierUnavailable):
		ServiceUnavailable(w, "VERIFIER_UNAVAILABLE", "Biometric verification service is unavailable, please retry", retryAfterSeconds)
	case errors.Is(err, attendance.ErrLockTimeout):
		ServiceUnavailable(w, "REGISTRATION_BUSY", "Another registration for this employee is in progress, please retry", retryAfterSeconds)
	case errors.Is(err, attendance.ErrPersistence):
		slog.Error("attendance persistence failure", "error", err)
		InternalServerError(w, "Failed to record attendance")

	// Report domain errors
	case errors.Is(err, report.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, report.ErrReportGenerationFailed):
		slog.Error("report generation failure", "error", err)
		InternalServerError(w, "Failed to generate report")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
