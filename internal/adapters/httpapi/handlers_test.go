package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memattendancerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/attendancerepo"
	memclock "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/clock"
	memidempotency "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/idempotency"
	mempersonrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/personrepo"
	memplanrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/profilerepo"
	memrequestrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/requestrepo"
	memsessionrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/sessionrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/attendance"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/dashboard"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/memberships"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/plans"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/requests"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/sessions"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	idempotencyport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/idempotency"
)

type testHarness struct {
	handler http.Handler
	clk     *memclock.ManualClock
	persons *mempersonrepo.Repo
	idem    *memidempotency.Store
}

func newTestHarness(t *testing.T) testHarness {
	t.Helper()

	persons := mempersonrepo.NewRepo()
	profiles := memprofilerepo.NewRepo()
	planRepo := memplanrepo.NewRepo()
	requestRepo := memrequestrepo.NewRepo(persons, profiles)
	attendanceRepo := memattendancerepo.NewRepo()
	sessionRepo := memsessionrepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	idemStore := memidempotency.NewStore()

	api := NewServer(
		requests.NewService(requestRepo, clk),
		memberships.NewService(persons, profiles, planRepo, attendanceRepo, clk),
		plans.NewService(planRepo, profiles, clk),
		sessions.NewService(sessionRepo, profiles, clk),
		attendance.NewService(attendanceRepo, profiles, clk),
		dashboard.NewService(persons, profiles, attendanceRepo, sessionRepo, clk),
		idemStore,
		clk,
	)
	return testHarness{
		handler: NewRouter(api, NewDevAuthMiddleware()),
		clk:     clk,
		persons: persons,
		idem:    idemStore,
	}
}

func (h testHarness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func asAdmin() map[string]string {
	return map[string]string{"X-Debug-Person": "admin-1", "X-Debug-Role": "admin"}
}

func asTrainer(id string) map[string]string {
	return map[string]string{"X-Debug-Person": id, "X-Debug-Role": "trainer"}
}

func asMember(id string) map[string]string {
	return map[string]string{"X-Debug-Person": id, "X-Debug-Role": "member"}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	return out
}

func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d body=%s, want %d", rec.Code, rec.Body.String(), status)
	}
	er := decodeBody[errorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code=%q, want %q", er.Error.Code, code)
	}
}

func TestHealthz_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestPublicSubmit_NoAuthRequired(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	dto := decodeBody[membershipRequestDTO](t, rec)
	if dto.Status != "pending" || dto.RequestId == "" {
		t.Fatalf("dto=%+v", dto)
	}
}

func TestRoleGates(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/admin/members", "", nil)
	wantErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	rec = h.do(t, http.MethodGet, "/api/admin/members", "", asTrainer("trainer-1"))
	wantErrorCode(t, rec, http.StatusForbidden, "FORBIDDEN")

	rec = h.do(t, http.MethodGet, "/api/admin/members", "", asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

// Walks the whole membership lifecycle over HTTP: public request, admin
// approval, plan and trainer assignment, trainer check-in and session, and a
// member-initiated renewal.
func TestMembershipLifecycle(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"Dana Reyes","email":"dana@example.com","phone":"555-0100"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body.String())
	}
	reqDTO := decodeBody[membershipRequestDTO](t, rec)

	rec = h.do(t, http.MethodPost, "/api/admin/membership-requests/"+reqDTO.RequestId+"/decision",
		`{"decision":"approved"}`, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("decide status=%d body=%s", rec.Code, rec.Body.String())
	}
	decided := decodeBody[decisionResponse](t, rec)
	if decided.Status != "approved" || decided.MemberId == nil {
		t.Fatalf("decided=%+v", decided)
	}
	memberID := *decided.MemberId

	// A second decision on the same request must not take.
	rec = h.do(t, http.MethodPost, "/api/admin/membership-requests/"+reqDTO.RequestId+"/decision",
		`{"decision":"rejected"}`, asAdmin())
	wantErrorCode(t, rec, http.StatusConflict, "ALREADY_PROCESSED")

	rec = h.do(t, http.MethodPost, "/api/admin/plans",
		`{"name":"Monthly","durationMonths":1,"priceCents":4900}`, asAdmin())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan status=%d body=%s", rec.Code, rec.Body.String())
	}
	plan := decodeBody[planDTO](t, rec)

	// Seed a trainer account directly; provisioning staff is out of band.
	now := h.clk.Now()
	if err := h.persons.Create(context.Background(), domain.Person{
		ID: "trainer-1", FullName: "Pat Trainer", Email: "pat@example.com",
		Role: domain.RoleTrainer, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed trainer err=%v", err)
	}

	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/assignment",
		`{"trainerId":"trainer-1","planId":"`+plan.PlanId+`"}`, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rec.Code, rec.Body.String())
	}
	member := decodeBody[memberDTO](t, rec)
	if member.PlanName == nil || *member.PlanName != "Monthly" {
		t.Fatalf("member=%+v", member)
	}

	rec = h.do(t, http.MethodPost, "/api/member/renew", "", asMember(memberID))
	if rec.Code != http.StatusOK {
		t.Fatalf("renew status=%d body=%s", rec.Code, rec.Body.String())
	}
	renewed := decodeBody[renewalResponse](t, rec)
	// Never dated before, so the renewal runs from today: 2024-03-01 + 1 month.
	if got := renewed.NewEndDate.Format("2006-01-02"); got != "2024-04-01" {
		t.Fatalf("newEndDate=%s", got)
	}

	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/status",
		`{"status":"Active"}`, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("status update status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, "/api/trainer/attendance/check-in",
		`{"memberId":"`+memberID+`"}`, asTrainer("trainer-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("check-in status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, "/api/trainer/sessions",
		`{"memberId":"`+memberID+`","startAt":"2024-03-05T10:00:00Z"}`, asTrainer("trainer-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("schedule status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/api/member/sessions", "", asMember(memberID))
	if rec.Code != http.StatusOK {
		t.Fatalf("my sessions status=%d body=%s", rec.Code, rec.Body.String())
	}
	mySessions := decodeBody[[]sessionDTO](t, rec)
	if len(mySessions) != 1 {
		t.Fatalf("sessions=%+v", mySessions)
	}

	rec = h.do(t, http.MethodGet, "/api/admin/dashboard", "", asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rec.Code, rec.Body.String())
	}
	dash := decodeBody[adminDashboardDTO](t, rec)
	if dash.TotalMembers != 1 || dash.ActiveTrainers != 1 || dash.CheckedInNow != 1 {
		t.Fatalf("dashboard=%+v", dash)
	}
}

func TestRenew_IdempotencyReplay(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/members",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, asAdmin())
	if rec.Code != http.StatusCreated {
		t.Fatalf("provision status=%d body=%s", rec.Code, rec.Body.String())
	}
	memberID := decodeBody[memberDTO](t, rec).MemberId

	rec = h.do(t, http.MethodPost, "/api/admin/plans",
		`{"name":"Monthly","durationMonths":1,"priceCents":4900}`, asAdmin())
	plan := decodeBody[planDTO](t, rec)
	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/assignment",
		`{"planId":"`+plan.PlanId+`"}`, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rec.Code, rec.Body.String())
	}

	headers := asMember(memberID)
	headers["Idempotency-Key"] = "renew-1"

	rec = h.do(t, http.MethodPost, "/api/member/renew", "", headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("renew status=%d body=%s", rec.Code, rec.Body.String())
	}
	first := decodeBody[renewalResponse](t, rec)

	// The retry replays the stored response; the end date does not stack.
	rec = h.do(t, http.MethodPost, "/api/member/renew", "", headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status=%d body=%s", rec.Code, rec.Body.String())
	}
	second := decodeBody[renewalResponse](t, rec)
	if !second.NewEndDate.Time.Equal(first.NewEndDate.Time) {
		t.Fatalf("replayed end=%v, first end=%v", second.NewEndDate.Time, first.NewEndDate.Time)
	}

	rec = h.do(t, http.MethodGet, "/api/member/profile", "", asMember(memberID))
	profile := decodeBody[memberDTO](t, rec)
	if profile.EndDate == nil || !profile.EndDate.Time.Equal(first.NewEndDate.Time) {
		t.Fatalf("profile end=%v, want %v", profile.EndDate, first.NewEndDate)
	}

	// A fresh key is a real renewal and extends again.
	headers["Idempotency-Key"] = "renew-2"
	rec = h.do(t, http.MethodPost, "/api/member/renew", "", headers)
	third := decodeBody[renewalResponse](t, rec)
	if third.NewEndDate.Time.Equal(first.NewEndDate.Time) {
		t.Fatalf("new key did not extend: %v", third.NewEndDate.Time)
	}
}

func TestPublicSubmit_IdempotencyKeyReuse(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	headers := map[string]string{"Idempotency-Key": "submit-1"}

	rec := h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body.String())
	}
	first := decodeBody[membershipRequestDTO](t, rec)

	rec = h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("replay status=%d body=%s", rec.Code, rec.Body.String())
	}
	if replay := decodeBody[membershipRequestDTO](t, rec); replay.RequestId != first.RequestId {
		t.Fatalf("replay created a second request: %s vs %s", replay.RequestId, first.RequestId)
	}

	// Same key, different payload: rejected, not silently replayed.
	rec = h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"Someone Else","email":"else@example.com"}`, headers)
	wantErrorCode(t, rec, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")
}

func TestAssignment_TriStateOverHTTP(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/members",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, asAdmin())
	memberID := decodeBody[memberDTO](t, rec).MemberId
	rec = h.do(t, http.MethodPost, "/api/admin/plans",
		`{"name":"Monthly","durationMonths":1,"priceCents":4900}`, asAdmin())
	plan := decodeBody[planDTO](t, rec)

	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/assignment",
		`{"planId":"`+plan.PlanId+`"}`, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rec.Code, rec.Body.String())
	}

	// Omitted planId leaves the assignment alone.
	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/assignment",
		`{}`, asAdmin())
	member := decodeBody[memberDTO](t, rec)
	if member.PlanId == nil {
		t.Fatalf("omitted field cleared the plan: %+v", member)
	}

	// Explicit null clears it.
	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/assignment",
		`{"planId":null}`, asAdmin())
	member = decodeBody[memberDTO](t, rec)
	if member.PlanId != nil {
		t.Fatalf("null did not clear the plan: %+v", member)
	}
}

func TestIdempotencyRecords_StampedFromClock(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.clk.Advance(48 * time.Hour)
	now := h.clk.Now().UTC()

	body := `{"fullName":"Dana Reyes","email":"dana@example.com"}`
	headers := map[string]string{"Idempotency-Key": "submit-1"}
	rec := h.do(t, http.MethodPost, "/api/public/membership-requests", body, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body.String())
	}

	sum := sha256.Sum256([]byte(body))
	fp := idempotencyport.Fingerprint{
		Key:    "submit-1",
		Actor:  anonymousActor,
		Method: http.MethodPost,
		Route:  "/public/membership-requests",
	}
	meta, found, err := h.idem.Get(context.Background(), fp)
	if err != nil || !found {
		t.Fatalf("meta record: found=%v err=%v", found, err)
	}
	if !meta.CreatedAt.Equal(now) {
		t.Fatalf("meta CreatedAt=%v, want clock time %v", meta.CreatedAt, now)
	}

	fp.BodyHash = hex.EncodeToString(sum[:])
	resp, found, err := h.idem.Get(context.Background(), fp)
	if err != nil || !found {
		t.Fatalf("response record: found=%v err=%v", found, err)
	}
	if !resp.CreatedAt.Equal(now) {
		t.Fatalf("response CreatedAt=%v, want clock time %v", resp.CreatedAt, now)
	}
}

func TestUpdateDates_RequiresBothDates(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/admin/members",
		`{"fullName":"Dana Reyes","email":"dana@example.com"}`, asAdmin())
	memberID := decodeBody[memberDTO](t, rec).MemberId

	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/dates",
		`{"endDate":"2024-06-01"}`, asAdmin())
	wantErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = h.do(t, http.MethodGet, "/api/admin/members/"+memberID, "", asAdmin())
	member := decodeBody[memberDTO](t, rec)
	if member.StartDate != nil || member.EndDate != nil {
		t.Fatalf("rejected update persisted dates: %+v", member)
	}

	rec = h.do(t, http.MethodPatch, "/api/admin/members/"+memberID+"/dates",
		`{"startDate":"2024-03-01","endDate":"2024-06-01"}`, asAdmin())
	member = decodeBody[memberDTO](t, rec)
	if member.StartDate == nil || member.EndDate == nil {
		t.Fatalf("complete update did not persist dates: %+v", member)
	}
}

func TestValidationErrorShape(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := h.do(t, http.MethodPost, "/api/public/membership-requests",
		`{"fullName":"","email":"dana@example.com"}`, nil)
	wantErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = h.do(t, http.MethodPost, "/api/public/membership-requests", `not json`, nil)
	wantErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}
