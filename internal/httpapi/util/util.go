package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"studentportal/internal/shared"
)

var validate = validator.New()

type ctxKey int

const userContextKey ctxKey = iota

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *shared.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user placed on the request
// context by the auth middleware.
func UserFromContext(ctx context.Context) (*shared.User, bool) {
	user, ok := ctx.Value(userContextKey).(*shared.User)
	return user, ok
}

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}

	// If payload is already a map with a "success" key, use it directly
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	log.Printf("HTTP Error %d: %s", status, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResponse := JSONError{
		Success: false,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// HandleServiceError maps the service error taxonomy to HTTP status codes.
func HandleServiceError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteJSONError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, shared.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "No records found")
	case errors.Is(err, shared.ErrUnauthorized):
		WriteJSONError(w, http.StatusUnauthorized, "Invalid credentials or token")
	case errors.Is(err, shared.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, shared.ErrStoreUnavailable):
		WriteJSONError(w, http.StatusServiceUnavailable, "Record store unavailable")
	default:
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// DecodeAndValidate decodes a JSON body into dest and runs struct
// validation. Payloads failing either are rejected before any store
// mutation.
func DecodeAndValidate(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return shared.NewValidationError("body", "invalid JSON payload")
	}
	if err := validate.Struct(dest); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			first := invalid[0]
			return shared.NewValidationError(
				strings.ToLower(first.Field()),
				fmt.Sprintf("failed %s validation", first.Tag()),
			)
		}
		return shared.NewValidationError("body", "payload validation failed")
	}
	return nil
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	// Expect header: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
