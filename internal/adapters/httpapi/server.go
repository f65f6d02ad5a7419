package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/attendance"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/dashboard"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/memberships"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/plans"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/requests"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/sessions"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/platform/auth/jwtverifier"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/idempotency"
)

// anonymousActor is the fingerprint actor for unauthenticated routes, where
// no person id exists yet to scope the idempotency key.
const anonymousActor = domain.PersonID("anonymous")

// Server holds the use-case services and implements every HTTP handler.
type Server struct {
	Requests    *requests.Service
	Memberships *memberships.Service
	Plans       *plans.Service
	Sessions    *sessions.Service
	Attendance  *attendance.Service
	Dashboard   *dashboard.Service
	Idem        idempotency.Store
	Clk         clockport.Clock
}

func NewServer(
	requestsSvc *requests.Service,
	membershipsSvc *memberships.Service,
	plansSvc *plans.Service,
	sessionsSvc *sessions.Service,
	attendanceSvc *attendance.Service,
	dashboardSvc *dashboard.Service,
	idem idempotency.Store,
	clk clockport.Clock,
) *Server {
	return &Server{
		Requests:    requestsSvc,
		Memberships: membershipsSvc,
		Plans:       plansSvc,
		Sessions:    sessionsSvc,
		Attendance:  attendanceSvc,
		Dashboard:   dashboardSvc,
		Idem:        idem,
		Clk:         clk,
	}
}

// --- public ---

func (s *Server) SubmitMembershipRequest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body", nil)
		return
	}
	var body submitRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}

	s.runIdempotent(w, r, anonymousActor, "/public/membership-requests", raw, http.StatusCreated, func() (any, error) {
		req, err := s.Requests.Submit(r.Context(), requests.SubmitInput{
			FullName: body.FullName,
			Email:    string(body.Email),
			Phone:    body.Phone,
			Message:  body.Message,
		})
		if err != nil {
			return nil, err
		}
		return membershipRequestFromDomain(req), nil
	})
}

// --- admin: membership requests ---

func (s *Server) ListMembershipRequests(w http.ResponseWriter, r *http.Request) {
	var status *domain.RequestStatus
	if q := r.URL.Query().Get("status"); q != "" {
		st := domain.RequestStatus(q)
		status = &st
	}
	list, err := s.Requests.List(r.Context(), status)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]membershipRequestDTO, 0, len(list))
	for _, req := range list {
		out = append(out, membershipRequestFromDomain(req))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetMembershipRequest(w http.ResponseWriter, r *http.Request) {
	id := domain.RequestID(chi.URLParam(r, "requestId"))
	req, err := s.Requests.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, membershipRequestFromDomain(req))
}

func (s *Server) DecideMembershipRequest(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	id := domain.RequestID(chi.URLParam(r, "requestId"))
	res, err := s.Requests.Decide(r.Context(), id, domain.RequestDecision(body.Decision))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionFromResult(res))
}

// --- admin: members ---

func (s *Server) ProvisionMember(w http.ResponseWriter, r *http.Request) {
	var body provisionMemberBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := s.Memberships.ProvisionMember(r.Context(), memberships.ProvisionInput{
		FullName:    body.FullName,
		Email:       string(body.Email),
		Phone:       body.Phone,
		HealthGoals: body.HealthGoals,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberFromSummary(m))
}

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	list, err := s.Memberships.ListMembers(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]memberDTO, 0, len(list))
	for _, m := range list {
		out = append(out, memberFromSummary(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.Memberships.GetMember(r.Context(), memberIDParam(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberFromSummary(m))
}

func (s *Server) UpdateMemberAssignment(w http.ResponseWriter, r *http.Request) {
	var body assignmentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := s.Memberships.AssignTrainerAndPlan(r.Context(), memberIDParam(r), body.toInput())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberFromSummary(m))
}

func (s *Server) UpdateMemberStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := s.Memberships.UpdateStatus(r.Context(), memberIDParam(r), domain.MembershipStatus(body.Status))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberFromSummary(m))
}

func (s *Server) UpdateMemberDates(w http.ResponseWriter, r *http.Request) {
	var body datesBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := s.Memberships.UpdateDates(r.Context(), memberIDParam(r), body.StartDate.Time, body.EndDate.Time)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberFromSummary(m))
}

func (s *Server) RenewMember(w http.ResponseWriter, r *http.Request) {
	res, err := s.Memberships.Renew(r.Context(), memberIDParam(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renewalFromResult(res))
}

// --- admin: plans ---

func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var body createPlanBody
	if !decodeJSON(w, r, &body) {
		return
	}
	in := plans.CreateInput{
		Name:           body.Name,
		DurationMonths: body.DurationMonths,
		PriceCents:     body.PriceCents,
		Description:    body.Description,
	}
	if body.Status != nil {
		st := domain.PlanStatus(*body.Status)
		in.Status = &st
	}
	p, err := s.Plans.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, planFromDomain(p))
}

func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	list, err := s.Plans.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]planDTO, 0, len(list))
	for _, p := range list {
		out = append(out, planFromDomain(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.Plans.Get(r.Context(), domain.PlanID(chi.URLParam(r, "planId")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planFromDomain(p))
}

func (s *Server) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var body updatePlanBody
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := s.Plans.Update(r.Context(), domain.PlanID(chi.URLParam(r, "planId")), body.toInput())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planFromDomain(res.Plan))
}

func (s *Server) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.Plans.Delete(r.Context(), domain.PlanID(chi.URLParam(r, "planId"))); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- admin: dashboard ---

func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Dashboard.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminDashboardDTO{
		TotalMembers:       stats.TotalMembers,
		ActiveTrainers:     stats.ActiveTrainers,
		ExpiredMemberships: stats.ExpiredMemberships,
		CheckedInNow:       stats.CheckedInNow,
	})
}

// --- trainer ---

func (s *Server) ListAssignedMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	list, err := s.Memberships.ListAssignedMembers(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]assignedMemberDTO, 0, len(list))
	for _, m := range list {
		out = append(out, assignedMemberFromDomain(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) TrainerDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	stats, err := s.Dashboard.TrainerStats(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trainerDashboardDTO{
		AssignedMembers:   stats.AssignedMembers,
		TotalSessions:     stats.TotalSessions,
		ScheduledSessions: stats.ScheduledSessions,
		CompletedSessions: stats.CompletedSessions,
		CanceledSessions:  stats.CanceledSessions,
		TodaySessions:     stats.TodaySessions,
	})
}

func (s *Server) ScheduleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body scheduleSessionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.Sessions.Schedule(r.Context(), id.PersonID, scheduleInputFromBody(body))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionFromDomain(sess))
}

func (s *Server) ListTrainerSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	list, err := s.Sessions.ListByTrainer(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsToDTO(list))
}

func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body updateSessionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.Sessions.Update(r.Context(), id.PersonID, domain.SessionID(chi.URLParam(r, "sessionId")), sessions.UpdateInput{
		StartAt:         body.StartAt,
		DurationMinutes: body.DurationMinutes,
		Notes:           body.Notes,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFromDomain(sess))
}

func (s *Server) SetSessionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body sessionStatusBody
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.Sessions.SetStatus(r.Context(), id.PersonID, domain.SessionID(chi.URLParam(r, "sessionId")), domain.SessionStatus(body.Status))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFromDomain(sess))
}

func (s *Server) CheckInMember(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body checkInBody
	if !decodeJSON(w, r, &body) {
		return
	}
	rec, err := s.Attendance.CheckIn(r.Context(), id.PersonID, domain.PersonID(body.MemberId))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attendanceFromDomain(rec))
}

func (s *Server) CheckOutMember(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body checkOutBody
	if !decodeJSON(w, r, &body) {
		return
	}
	rec, err := s.Attendance.CheckOut(r.Context(), id.PersonID, domain.PersonID(body.MemberId), body.Notes)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceFromDomain(rec))
}

func (s *Server) MemberAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.Attendance.History(r.Context(), memberIDParam(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceToDTO(list))
}

// --- member portal ---

func (s *Server) MyProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	m, err := s.Memberships.GetMember(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, memberFromSummary(m))
}

func (s *Server) MyPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	p, err := s.Memberships.GetMemberPlan(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planFromDomain(p))
}

func (s *Server) MySessions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	list, err := s.Sessions.ListByMember(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsToDTO(list))
}

func (s *Server) MyAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	list, err := s.Attendance.History(r.Context(), id.PersonID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceToDTO(list))
}

// RenewMyMembership extends the caller's membership by one plan duration.
// Retries under the same Idempotency-Key replay the stored response instead
// of stacking a second extension.
func (s *Server) RenewMyMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body", nil)
		return
	}

	s.runIdempotent(w, r, id.PersonID, "/member/renew", raw, http.StatusOK, func() (any, error) {
		res, err := s.Memberships.Renew(r.Context(), id.PersonID)
		if err != nil {
			return nil, err
		}
		return renewalFromResult(res), nil
	})
}

// --- idempotency ---

// runIdempotent executes exec under the Idempotency-Key protocol:
//   - replay the stored response for the same actor+key+route+bodyHash
//   - reject with 409 when the same actor+key+route arrives with a different
//     payload
//
// The meta record (empty BodyHash) pins the first payload seen for the key.
// Without a key (or a store) exec runs unconditionally.
func (s *Server) runIdempotent(w http.ResponseWriter, r *http.Request, actor domain.PersonID, route string, body []byte, okStatus int, exec func() (any, error)) {
	key := idempotency.Key(r.Header.Get("Idempotency-Key"))
	if key == "" || s.Idem == nil {
		resp, err := exec()
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, okStatus, resp)
		return
	}

	sum := sha256.Sum256(body)
	bodyHash := hex.EncodeToString(sum[:])

	metaFP := idempotency.Fingerprint{
		Key:      key,
		Actor:    actor,
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	if meta, found, err := s.Idem.Get(r.Context(), metaFP); err != nil {
		writeAppError(w, r, err)
		return
	} else if found {
		if string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return
		}
	} else {
		_ = s.Idem.Put(r.Context(), metaFP, idempotency.Record{
			StatusCode:  0,
			ContentType: "text/plain",
			Body:        []byte(bodyHash),
			CreatedAt:   s.Clk.Now().UTC(),
		})
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	if rec, found, err := s.Idem.Get(r.Context(), respFP); err != nil {
		writeAppError(w, r, err)
		return
	} else if found && rec.StatusCode == okStatus && strings.HasPrefix(rec.ContentType, "application/json") {
		w.Header().Set("Content-Type", rec.ContentType)
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	resp, err := exec()
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	// Store the successful response for replay.
	if b, err := json.Marshal(resp); err == nil {
		_ = s.Idem.Put(r.Context(), respFP, idempotency.Record{
			StatusCode:  okStatus,
			ContentType: "application/json",
			Body:        b,
			CreatedAt:   s.Clk.Now().UTC(),
		})
	}
	writeJSON(w, okStatus, resp)
}

// --- helpers ---

func memberIDParam(r *http.Request) domain.PersonID {
	return domain.PersonID(chi.URLParam(r, "memberId"))
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (jwtverifier.Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return jwtverifier.Identity{}, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sessionsToDTO(list []domain.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(list))
	for _, sess := range list {
		out = append(out, sessionFromDomain(sess))
	}
	return out
}

func attendanceToDTO(list []domain.AttendanceRecord) []attendanceDTO {
	out := make([]attendanceDTO, 0, len(list))
	for _, rec := range list {
		out = append(out, attendanceFromDomain(rec))
	}
	return out
}
