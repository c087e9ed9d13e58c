package attendance

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
)

// AttendanceService defines the registration side of the engine
type AttendanceService interface {
	// Register resolves the schedule, infers direction, verifies and persists one punch
	Register(ctx context.Context, scope identity.Scope, req RegisterRequest) (RegistrationResult, error)

	// ListEvents returns the raw punches of one employee on one date
	ListEvents(ctx context.Context, scope identity.Scope, filter EventListFilter) ([]EventResponse, error)
}
