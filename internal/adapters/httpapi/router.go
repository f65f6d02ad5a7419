package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// NewRouter constructs the API HTTP router.
//
// Route groups map to roles: /api/admin, /api/trainer, and /api/member each
// require the matching role; /api/public and /healthz are unauthenticated.
// authn is the middleware returned by NewAuthMiddleware or
// NewDevAuthMiddleware.
func NewRouter(s *Server, authn func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(authn)

	// Health endpoint is unauthenticated and used for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/public", func(r chi.Router) {
			r.Post("/membership-requests", s.SubmitMembershipRequest)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			r.Get("/membership-requests", s.ListMembershipRequests)
			r.Get("/membership-requests/{requestId}", s.GetMembershipRequest)
			r.Post("/membership-requests/{requestId}/decision", s.DecideMembershipRequest)

			r.Post("/members", s.ProvisionMember)
			r.Get("/members", s.ListMembers)
			r.Get("/members/{memberId}", s.GetMember)
			r.Patch("/members/{memberId}/assignment", s.UpdateMemberAssignment)
			r.Patch("/members/{memberId}/status", s.UpdateMemberStatus)
			r.Patch("/members/{memberId}/dates", s.UpdateMemberDates)
			r.Post("/members/{memberId}/renew", s.RenewMember)

			r.Post("/plans", s.CreatePlan)
			r.Get("/plans", s.ListPlans)
			r.Get("/plans/{planId}", s.GetPlan)
			r.Patch("/plans/{planId}", s.UpdatePlan)
			r.Delete("/plans/{planId}", s.DeletePlan)

			r.Get("/dashboard", s.AdminDashboard)
		})

		r.Route("/trainer", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleTrainer))

			r.Get("/members", s.ListAssignedMembers)
			r.Get("/members/{memberId}/attendance", s.MemberAttendanceHistory)
			r.Get("/dashboard", s.TrainerDashboard)

			r.Post("/sessions", s.ScheduleSession)
			r.Get("/sessions", s.ListTrainerSessions)
			r.Put("/sessions/{sessionId}", s.UpdateSession)
			r.Patch("/sessions/{sessionId}/status", s.SetSessionStatus)

			r.Post("/attendance/check-in", s.CheckInMember)
			r.Post("/attendance/check-out", s.CheckOutMember)
		})

		r.Route("/member", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleMember))

			r.Get("/profile", s.MyProfile)
			r.Get("/plan", s.MyPlan)
			r.Get("/sessions", s.MySessions)
			r.Get("/attendance", s.MyAttendance)
			r.Post("/renew", s.RenewMyMembership)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
