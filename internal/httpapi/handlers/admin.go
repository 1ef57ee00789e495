package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studentportal/internal/admin"
	"studentportal/internal/httpapi/util"
)

// ============================================================================
// ADMIN HANDLERS
// ============================================================================

type AdminHandler struct {
	svc *admin.Service
}

func NewAdminHandler(svc *admin.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// GetSystemStats handles GET /api/admin/stats
func (h *AdminHandler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetSystemStats(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, stats)
}

// RemoveStudent handles DELETE /api/admin/users/{userID}
func (h *AdminHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	if err := h.svc.RemoveStudent(r.Context(), userID); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Student and all owned records removed",
	})
}
