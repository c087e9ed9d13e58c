package report

import "errors"

var (
	ErrInvalidDateRange       = errors.New("date_to must not be before date_from")
	ErrReportGenerationFailed = errors.New("failed to generate report")
)
