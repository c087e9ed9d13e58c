package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

// NewHolidayCalendar reads the holidays table. Rows without a company apply
// to every company.
func NewHolidayCalendar(db *database.DB) holiday.Calendar {
	return &holidayRepository{db: db}
}

// IsHoliday implements holiday.Calendar.
func (h *holidayRepository) IsHoliday(ctx context.Context, date time.Time, companyID string) (bool, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM holidays
			WHERE date = $1
			  AND is_civic = false
			  AND (company_id IS NULL OR company_id = $2)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, date, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check holiday on %s: %w", date.Format("2006-01-02"), err)
	}
	return exists, nil
}

// IsCivicDay implements holiday.Calendar.
func (h *holidayRepository) IsCivicDay(ctx context.Context, date time.Time) (bool, error) {
	q := GetQuerier(ctx, h.db)

	query := `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1 AND is_civic = true)`

	var exists bool
	if err := q.QueryRow(ctx, query, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check civic day on %s: %w", date.Format("2006-01-02"), err)
	}
	return exists, nil
}
