package handlers

import (
	"net/http"
	"strconv"

	"studentportal/internal/httpapi/util"
	"studentportal/internal/marks"
)

// ============================================================================
// MARKS HANDLERS
// ============================================================================

type MarksHandler struct {
	svc *marks.Service
}

func NewMarksHandler(svc *marks.Service) *MarksHandler {
	return &MarksHandler{svc: svc}
}

// GetReport handles GET /api/marks?semester=N
func (h *MarksHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentKey(r)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	var semester int32
	if raw := r.URL.Query().Get("semester"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 12 {
			util.WriteJSONError(w, http.StatusBadRequest, "semester must be a number between 1 and 12")
			return
		}
		semester = int32(parsed)
	}

	report, err := h.svc.GetReport(r.Context(), studentID, semester)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}

// EnterInternal handles POST /api/marks/internal
func (h *MarksHandler) EnterInternal(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req marks.InternalRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	outcomes, err := h.svc.EnterInternal(r.Context(), user.ID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
	})
}

// RecordFinal handles PUT /api/marks/final
func (h *MarksHandler) RecordFinal(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req marks.FinalRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	action, err := h.svc.RecordFinal(r.Context(), user.ID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"action": action,
	})
}
