package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/identity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

// maxRegisterBody bounds the JSON body: a base64 photo plus a biometric sample.
const maxRegisterBody = 16 << 20

type AttendanceHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	ListEvents(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Register handles POST /attendance/register
func (h *attendanceHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	scope, err := identity.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.RegisterRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode register request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Kiosk tokens name the employee; employee tokens default to themselves.
	if scope.EmployeeID != "" && req.EmployeeID == "" {
		req.EmployeeID = scope.EmployeeID
	}

	result, err := h.attendanceService.Register(r.Context(), scope, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance registered", result)
}

// ListEvents handles GET /attendance/events?employee_id=&date=
func (h *attendanceHandlerImpl) ListEvents(w http.ResponseWriter, r *http.Request) {
	scope, err := identity.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	query := r.URL.Query()
	filter := attendance.EventListFilter{
		EmployeeID: query.Get("employee_id"),
		Date:       query.Get("date"),
	}
	if filter.EmployeeID == "" {
		filter.EmployeeID = scope.EmployeeID
	}

	events, err := h.attendanceService.ListEvents(r.Context(), scope, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, events)
}
