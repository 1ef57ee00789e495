package handlers

import (
	"net/http"

	"studentportal/internal/auth"
	"studentportal/internal/httpapi/util"
)

// ============================================================================
// AUTH HANDLERS
// ============================================================================

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Validate handles GET /api/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.svc.Validate(r.Context(), token)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user":  user,
	})
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}

	user, err := h.svc.Validate(r.Context(), token)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	var req changePasswordRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password changed successfully",
	})
}
