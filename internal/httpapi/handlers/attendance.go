package handlers

import (
	"net/http"

	"studentportal/internal/attendance"
	"studentportal/internal/httpapi/util"
	"studentportal/internal/shared"
)

// ============================================================================
// ATTENDANCE HANDLERS
// ============================================================================

type AttendanceHandler struct {
	svc *attendance.Service
}

func NewAttendanceHandler(svc *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// studentKey resolves the record key for the authenticated user. Students
// own records under their student ID; staff looking at a specific student
// pass ?student_id= instead.
func studentKey(r *http.Request) (string, error) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		return "", shared.ErrUnauthorized
	}
	if user.Role == shared.RoleStudent {
		if user.StudentID != "" {
			return user.StudentID, nil
		}
		return user.ID, nil
	}
	target := r.URL.Query().Get("student_id")
	if target == "" {
		return "", shared.NewValidationError("student_id", "query parameter required for staff lookups")
	}
	return target, nil
}

// GetSummary handles GET /api/attendance
func (h *AttendanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentKey(r)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	summary, err := h.svc.GetStudentSummary(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, summary)
}

// Mark handles POST /api/attendance/mark
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req attendance.MarkRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	outcomes, err := h.svc.Mark(r.Context(), user.ID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
	})
}
