package handlers

import (
	"net/http"

	"studentportal/internal/fees"
	"studentportal/internal/httpapi/util"
)

// ============================================================================
// FEES HANDLERS
// ============================================================================

type FeesHandler struct {
	svc *fees.Service
}

func NewFeesHandler(svc *fees.Service) *FeesHandler {
	return &FeesHandler{svc: svc}
}

// GetLedger handles GET /api/fees
func (h *FeesHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentKey(r)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	views, err := h.svc.GetStudentFees(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fees": views,
	})
}

// GetTransactions handles GET /api/fees/transactions
func (h *FeesHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentKey(r)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	txns, err := h.svc.GetTransactions(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
	})
}

// SeedStructure handles POST /api/fees/structure
func (h *FeesHandler) SeedStructure(w http.ResponseWriter, r *http.Request) {
	var req fees.StructureRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	action, err := h.svc.SeedStructure(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"action": action,
	})
}

// RecordPayment handles POST /api/fees/payment
func (h *FeesHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req fees.PaymentRequest
	if err := util.DecodeAndValidate(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	record, err := h.svc.RecordPayment(r.Context(), user.ID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, record)
}
