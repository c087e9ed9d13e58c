package report

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
)

// ReportService defines the read path over the event log
type ReportService interface {
	// GenerateHoursReport reconciles the events in range and classifies each session's hours
	GenerateHoursReport(ctx context.Context, scope identity.Scope, req HoursReportRequest) (HoursReport, error)

	// FindOpenSessions returns, across companies, sessions on date that have an entry but no exit
	FindOpenSessions(ctx context.Context, date time.Time) ([]OpenSession, error)
}
