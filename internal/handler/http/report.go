package http

import (
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type ReportHandler interface {
	// Worked-hours report
	GetHoursReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// GetHoursReport handles GET /reports/hours
func (h *reportHandlerImpl) GetHoursReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scope, err := identity.FromContext(ctx)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	req := report.HoursReportRequest{
		DateFrom:        query.Get("date_from"),
		DateTo:          query.Get("date_to"),
		SiteID:          optionalParam(query.Get("site_id")),
		EstablishmentID: optionalParam(query.Get("establishment_id")),
		EmployeeIDs:     listParam(query["employee_ids"]),
	}

	result, err := h.reportService.GenerateHoursReport(ctx, scope, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func optionalParam(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// listParam accepts both repeated parameters and comma separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
