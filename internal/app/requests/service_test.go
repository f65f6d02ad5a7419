package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/clock"
	mempersonrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/personrepo"
	memprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/profilerepo"
	memrequestrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/requestrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

type fixture struct {
	svc      *Service
	persons  *mempersonrepo.Repo
	profiles *memprofilerepo.Repo
	clk      *memclock.ManualClock
}

func newFixture() fixture {
	persons := mempersonrepo.NewRepo()
	profiles := memprofilerepo.NewRepo()
	repo := memrequestrepo.NewRepo(persons, profiles)
	clk := memclock.NewManualClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	return fixture{
		svc:      NewService(repo, clk),
		persons:  persons,
		profiles: profiles,
		clk:      clk,
	}
}

func wantAppErr(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae := (*apperr.Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s %d", err, err, code, status)
	}
}

func TestService_Submit_NormalizesName(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "  Dana   Reyes ",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}
	if r.FullName != "Dana Reyes" {
		t.Fatalf("fullName=%q", r.FullName)
	}
	if r.Status != domain.RequestPending {
		t.Fatalf("status=%q, want pending", r.Status)
	}
	if r.DecidedAt != nil {
		t.Fatalf("decidedAt set on a fresh request")
	}
}

func TestService_Submit_RejectsBadInput(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	_, err := fix.svc.Submit(context.Background(), SubmitInput{FullName: "   ", Email: "dana@example.com"})
	wantAppErr(t, err, 422, "VALIDATION_ERROR")

	_, err = fix.svc.Submit(context.Background(), SubmitInput{FullName: "Dana", Email: "not-an-email"})
	wantAppErr(t, err, 422, "VALIDATION_ERROR")
}

func TestService_Submit_AllowsDuplicateEmails(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	for i := 0; i < 2; i++ {
		if _, err := fix.svc.Submit(context.Background(), SubmitInput{
			FullName: "Dana Reyes",
			Email:    "dana@example.com",
		}); err != nil {
			t.Fatalf("Submit #%d err=%v", i+1, err)
		}
	}
	list, err := fix.svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len=%d, want 2 pending requests with the same email", len(list))
	}
}

func TestService_Decide_ApproveProvisionsMember(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	phone := "555-0100"
	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
		Phone:    &phone,
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}

	res, err := fix.svc.Decide(context.Background(), r.ID, domain.DecisionApproved)
	if err != nil {
		t.Fatalf("Decide err=%v", err)
	}
	if res.Status != domain.RequestApproved || res.MemberID == nil {
		t.Fatalf("res=%+v, want approved with member id", res)
	}

	p, err := fix.persons.GetByID(context.Background(), *res.MemberID)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if p.Role != domain.RoleMember || p.Email != "dana@example.com" {
		t.Fatalf("person=%+v", p)
	}
	if p.CredentialRef != PlaceholderCredentialRef {
		t.Fatalf("credentialRef=%q", p.CredentialRef)
	}

	profile, err := fix.profiles.GetByPersonID(context.Background(), *res.MemberID)
	if err != nil {
		t.Fatalf("GetByPersonID err=%v", err)
	}
	if profile.Status != domain.MembershipInactive {
		t.Fatalf("profile status=%q, want Inactive until first assignment", profile.Status)
	}
	if profile.PlanID != nil || profile.TrainerID != nil || profile.StartDate != nil || profile.EndDate != nil {
		t.Fatalf("profile not empty: %+v", profile)
	}
}

func TestService_Decide_RejectLeavesNoMember(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}

	res, err := fix.svc.Decide(context.Background(), r.ID, domain.DecisionRejected)
	if err != nil {
		t.Fatalf("Decide err=%v", err)
	}
	if res.Status != domain.RequestRejected || res.MemberID != nil {
		t.Fatalf("res=%+v, want rejected with no member id", res)
	}
	if n, _ := fix.persons.CountByRole(context.Background(), domain.RoleMember); n != 0 {
		t.Fatalf("members=%d after reject, want 0", n)
	}
}

func TestService_Decide_ExactlyOnce(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}
	if _, err := fix.svc.Decide(context.Background(), r.ID, domain.DecisionRejected); err != nil {
		t.Fatalf("first Decide err=%v", err)
	}

	_, err = fix.svc.Decide(context.Background(), r.ID, domain.DecisionApproved)
	wantAppErr(t, err, 409, "ALREADY_PROCESSED")
}

func TestService_Decide_InvalidDecision(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}
	_, err = fix.svc.Decide(context.Background(), r.ID, domain.RequestDecision("maybe"))
	wantAppErr(t, err, 422, "VALIDATION_ERROR")
}

func TestService_Decide_NotFound(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	_, err := fix.svc.Decide(context.Background(), domain.RequestID("missing"), domain.DecisionApproved)
	wantAppErr(t, err, 404, "REQUEST_NOT_FOUND")
}

func TestService_Decide_ApproveWithTakenEmailKeepsRequestPending(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	now := fix.clk.Now()
	if err := fix.persons.Create(context.Background(), domain.Person{
		ID:        domain.PersonID("existing"),
		FullName:  "Existing Member",
		Email:     "dana@example.com",
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed person err=%v", err)
	}

	r, err := fix.svc.Submit(context.Background(), SubmitInput{
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Submit err=%v", err)
	}

	_, err = fix.svc.Decide(context.Background(), r.ID, domain.DecisionApproved)
	wantAppErr(t, err, 409, "EMAIL_ALREADY_IN_USE")

	got, err := fix.svc.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Status != domain.RequestPending {
		t.Fatalf("status=%q after failed approve, want pending", got.Status)
	}
}

func TestService_List_FilterValidation(t *testing.T) {
	t.Parallel()

	fix := newFixture()
	bad := domain.RequestStatus("open")
	_, err := fix.svc.List(context.Background(), &bad)
	wantAppErr(t, err, 422, "VALIDATION_ERROR")
}
