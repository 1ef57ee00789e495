package shared

import "errors"

// Error taxonomy surfaced by the services. The HTTP layer maps these to
// status codes; nothing in the core retries automatically.
var (
	// ErrNotFound means no records exist for the requested student/subject/
	// semester. Distinct from an empty-but-valid zero value.
	ErrNotFound = errors.New("no records found")

	// ErrUnauthorized means credentials or token checks failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the authenticated user may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps record-store failures. Batch writes report
	// these per item; reads surface them synchronously.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// IsValidation reports whether err is a payload validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
