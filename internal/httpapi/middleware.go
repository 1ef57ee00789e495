package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"studentportal/internal/auth"
	"studentportal/internal/httpapi/util"
	"studentportal/internal/metrics"
)

// RequireAuth validates the bearer token on every request and injects the
// resolved user into the request context.
func RequireAuth(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user, err := authSvc.Validate(r.Context(), token)
			if err != nil {
				util.HandleServiceError(w, err)
				return
			}

			ctx := util.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts an endpoint to users holding one of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := util.UserFromContext(r.Context())
			if !ok {
				util.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			util.WriteJSONError(w, http.StatusForbidden, "Access denied")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// RecordDuration observes per-route request latency. The chi route pattern
// is used instead of the raw path so IDs do not explode label cardinality.
func RecordDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		metrics.APIRequestDuration.WithLabelValues(
			pattern, r.Method, strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	})
}
