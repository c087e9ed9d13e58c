package attendance

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

var (
	// ErrValidation is the parent of every caller mistake. validator.ValidationErrors
	// are validation failures too.
	ErrValidation       = errors.New("invalid attendance request")
	ErrEmployeeNotFound = fmt.Errorf("%w: employee not found", ErrValidation)
	ErrEmployeeInactive = fmt.Errorf("%w: employee is not active", ErrValidation)

	ErrAlreadyComplete     = errors.New("entry and exit are already recorded for today's schedule")
	ErrVerificationFailed  = errors.New("biometric verification failed")
	ErrVerifierUnavailable = errors.New("biometric verification service unavailable")
	ErrLockTimeout         = errors.New("timed out waiting for concurrent registration")
	ErrPersistence         = errors.New("failed to persist attendance event")
)

// VerificationError carries the collaborator's verdict for a non-match.
type VerificationError struct {
	Method     Method
	Confidence float64
	Message    string
}

func (e *VerificationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (confidence %.2f)", ErrVerificationFailed, e.Confidence)
	}
	return fmt.Sprintf("%s: %s (confidence %.2f)", ErrVerificationFailed, e.Message, e.Confidence)
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

// IsValidation reports caller errors that must not be retried.
func IsValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.Is(err, ErrValidation) || errors.As(err, &verrs)
}

// IsRetryable reports transient failures where repeating the same request
// may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVerifierUnavailable) || errors.Is(err, ErrLockTimeout)
}
