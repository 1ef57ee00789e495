package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentportal/internal/shared"
)

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	token, err := ExtractToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestExtractTokenMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := ExtractToken(req)
	assert.Error(t, err)
}

func TestExtractTokenBadFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := ExtractToken(req)
	assert.Error(t, err)
}

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", shared.NewValidationError("date", "must be YYYY-MM-DD"), http.StatusBadRequest},
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"store unavailable", shared.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tc.err)

			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

type samplePayload struct {
	Name     string `json:"name" validate:"required"`
	Semester int32  `json:"semester" validate:"required,min=1,max=12"`
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"CS501","semester":5}`))
	var payload samplePayload

	require.NoError(t, DecodeAndValidate(req, &payload))
	assert.Equal(t, "CS501", payload.Name)
	assert.Equal(t, int32(5), payload.Semester)
}

func TestDecodeAndValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing field", `{"semester":5}`},
		{"out of range", `{"name":"CS501","semester":20}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var payload samplePayload

			err := DecodeAndValidate(req, &payload)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}
