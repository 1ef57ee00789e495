package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studentportal/internal/admin"
	"studentportal/internal/attendance"
	"studentportal/internal/auth"
	"studentportal/internal/cache"
	"studentportal/internal/fees"
	"studentportal/internal/httpapi/handlers"
	"studentportal/internal/httpapi/util"
	"studentportal/internal/marks"
	"studentportal/internal/schedule"
	"studentportal/internal/shared"
	"studentportal/internal/store"
)

// Services bundles everything the router needs.
type Services struct {
	Config     *shared.ServerConfig
	Store      *store.RecordStore
	Cache      *cache.Cache
	Auth       *auth.Service
	Attendance *attendance.Service
	Marks      *marks.Service
	Fees       *fees.Service
	Schedule   *schedule.Service
	Admin      *admin.Service
}

// NewRouter builds the full chi router with middleware, auth and all
// API routes mounted.
func NewRouter(svcs Services) http.Handler {
	r := chi.NewRouter()

	// ========================================================================
	// MIDDLEWARE
	// ========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(RecordDuration)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   svcs.Config.CORS.AllowedOrigins,
		AllowedMethods:   svcs.Config.CORS.AllowedMethods,
		AllowedHeaders:   svcs.Config.CORS.AllowedHeaders,
		AllowCredentials: svcs.Config.CORS.AllowCredentials,
		MaxAge:           svcs.Config.CORS.MaxAge,
	}))

	authHandler := handlers.NewAuthHandler(svcs.Auth)
	attendanceHandler := handlers.NewAttendanceHandler(svcs.Attendance)
	marksHandler := handlers.NewMarksHandler(svcs.Marks)
	feesHandler := handlers.NewFeesHandler(svcs.Fees)
	scheduleHandler := handlers.NewScheduleHandler(svcs.Schedule)
	adminHandler := handlers.NewAdminHandler(svcs.Admin)

	// ========================================================================
	// PUBLIC ROUTES
	// ========================================================================

	r.Get("/health", healthHandler(svcs))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/auth/login", authHandler.Login)

	// ========================================================================
	// PROTECTED ROUTES
	// ========================================================================

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(svcs.Auth))

		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/validate", authHandler.Validate)
		r.Post("/api/auth/change-password", authHandler.ChangePassword)

		r.Get("/api/attendance", attendanceHandler.GetSummary)
		r.Get("/api/marks", marksHandler.GetReport)
		r.Get("/api/fees", feesHandler.GetLedger)
		r.Get("/api/fees/transactions", feesHandler.GetTransactions)
		r.Get("/api/schedule", scheduleHandler.GetWeekly)

		// Faculty write paths
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(shared.RoleFaculty, shared.RoleAdmin))
			r.Post("/api/attendance/mark", attendanceHandler.Mark)
			r.Post("/api/marks/internal", marksHandler.EnterInternal)
		})

		// Admin-only paths
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(shared.RoleAdmin))
			r.Put("/api/marks/final", marksHandler.RecordFinal)
			r.Post("/api/fees/structure", feesHandler.SeedStructure)
			r.Post("/api/fees/payment", feesHandler.RecordPayment)
			r.Post("/api/schedule", scheduleHandler.CreateEntry)
			r.Get("/api/admin/stats", adminHandler.GetSystemStats)
			r.Delete("/api/admin/users/{userID}", adminHandler.RemoveStudent)
		})
	})

	return r
}

func healthHandler(svcs Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		if err := svcs.Store.Ping(ctx); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		util.WriteJSON(w, code, map[string]interface{}{
			"success": true,
			"status":  status,
			"service": svcs.Config.ServiceName,
			"cache":   svcs.Cache.Healthy(ctx),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
