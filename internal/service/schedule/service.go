package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

type resolverImpl struct {
	assignmentRepo schedule.AssignmentRepository
}

func NewResolver(assignmentRepo schedule.AssignmentRepository) schedule.Resolver {
	return &resolverImpl{assignmentRepo: assignmentRepo}
}

// Resolve picks among overlapping assignments by precedence: most recently
// created first, then latest effective_from, then highest id. The first one
// whose schedule runs on the date's weekday wins.
func (r *resolverImpl) Resolve(ctx context.Context, companyID, employeeID string, date time.Time) (schedule.Schedule, error) {
	assignments, err := r.assignmentRepo.ListCovering(ctx, companyID, employeeID, date)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("failed to list schedule assignments: %w", err)
	}

	weekday := schedule.ISOWeekday(date)
	for _, a := range orderByPrecedence(assignments) {
		// Repositories filter by date already; re-check so a loose query cannot leak.
		if !a.Covers(date) {
			continue
		}
		if a.Schedule.ActiveOn(weekday) {
			return a.Schedule, nil
		}
	}

	return schedule.Schedule{}, schedule.ErrNoActiveSchedule
}

func orderByPrecedence(assignments []schedule.Assignment) []schedule.Assignment {
	ordered := append([]schedule.Assignment(nil), assignments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.After(b.EffectiveFrom)
		}
		return a.ID > b.ID
	})
	return ordered
}
