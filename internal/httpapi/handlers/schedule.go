package handlers

import (
	"net/http"
	"strconv"

	"studentportal/internal/httpapi/util"
	"studentportal/internal/schedule"
	"studentportal/internal/shared"
)

// ============================================================================
// SCHEDULE HANDLERS
// ============================================================================

type ScheduleHandler struct {
	svc *schedule.Service
}

func NewScheduleHandler(svc *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// GetWeekly handles GET /api/schedule
func (h *ScheduleHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	section := user.Section
	semester := user.Semester
	if user.Role != shared.RoleStudent {
		section = r.URL.Query().Get("section")
		if raw := r.URL.Query().Get("semester"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				util.WriteJSONError(w, http.StatusBadRequest, "semester must be a number")
				return
			}
			semester = int32(parsed)
		}
	}

	entries, err := h.svc.GetWeekly(r.Context(), section, semester)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"schedule": entries,
	})
}

// CreateEntry handles POST /api/schedule
func (h *ScheduleHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req schedule.EntryRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	entry, err := h.svc.CreateEntry(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, entry)
}
