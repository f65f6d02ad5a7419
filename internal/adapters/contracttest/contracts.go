// Package contracttest holds behavioral suites every repository adapter must
// pass. The memory and Postgres adapters run the same suites so the two
// backends cannot drift apart on semantics the services rely on.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	attendancerepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
	idempotencyport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/idempotency"
	personrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	planrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
	profilerepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
	requestrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/requestrepo"
	sessionrepoport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

type CleanupFunc = func()

type PersonRepoFactory func(t *testing.T) (personrepoport.Repository, CleanupFunc)
type PlanRepoFactory func(t *testing.T) (planrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

// MembershipRepos bundles the repositories whose contracts only make sense
// together: profiles, attendance, and sessions all reference persons, and
// request approval writes persons and profiles.
type MembershipRepos struct {
	Persons    personrepoport.Repository
	Profiles   profilerepoport.Repository
	Requests   requestrepoport.Repository
	Attendance attendancerepoport.Repository
	Sessions   sessionrepoport.Repository
}

type MembershipReposFactory func(t *testing.T) (MembershipRepos, CleanupFunc)

func RunPersonRepo(t *testing.T, newRepo PersonRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Unix(1000, 0).UTC()
	aID := domain.PersonID(uuid.NewString())
	if err := repo.Create(ctx, domain.Person{
		ID:            aID,
		FullName:      "Alice Johnson",
		Email:         "alice@example.com",
		Role:          domain.RoleMember,
		CredentialRef: "cred-a",
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if _, err := repo.GetByID(ctx, aID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "ALICE@example.com"); err != nil {
		t.Fatalf("GetByEmail case-insensitive: %v", err)
	}

	// Email uniqueness.
	err := repo.Create(ctx, domain.Person{
		ID:            domain.PersonID(uuid.NewString()),
		FullName:      "Alice Two",
		Email:         "alice@example.com",
		Role:          domain.RoleMember,
		CredentialRef: "cred-a2",
		CreatedAt:     t0,
		UpdatedAt:     t0,
	})
	if !errors.Is(err, personrepoport.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	// ListByRole: newest first, filtered by role.
	t1 := t0.Add(time.Hour)
	bID := domain.PersonID(uuid.NewString())
	if err := repo.Create(ctx, domain.Person{
		ID:            bID,
		FullName:      "Bob Newman",
		Email:         "bob@example.com",
		Role:          domain.RoleMember,
		CredentialRef: "cred-b",
		CreatedAt:     t1,
		UpdatedAt:     t1,
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if err := repo.Create(ctx, domain.Person{
		ID:            domain.PersonID(uuid.NewString()),
		FullName:      "Tina Trainer",
		Email:         "tina@example.com",
		Role:          domain.RoleTrainer,
		CredentialRef: "cred-t",
		CreatedAt:     t1,
		UpdatedAt:     t1,
	}); err != nil {
		t.Fatalf("Create trainer: %v", err)
	}
	members, err := repo.ListByRole(ctx, domain.RoleMember)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(members) != 2 || members[0].ID != bID || members[1].ID != aID {
		t.Fatalf("unexpected member ordering: %#v", members)
	}
	if n, err := repo.CountByRole(ctx, domain.RoleTrainer); err != nil || n != 1 {
		t.Fatalf("CountByRole trainer: n=%d err=%v", n, err)
	}

	// Update round-trips and missing records surface ErrNotFound.
	a, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID before update: %v", err)
	}
	a.FullName = "Alice J."
	a.UpdatedAt = t1
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(ctx, aID)
	if err != nil || got.FullName != "Alice J." {
		t.Fatalf("unexpected updated person: %#v err=%v", got, err)
	}
	missing := a
	missing.ID = domain.PersonID(uuid.NewString())
	if err := repo.Update(ctx, missing); !errors.Is(err, personrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing person, got %v", err)
	}

	// Remove releases the email for reuse; removing an unknown id is a no-op.
	if err := repo.Remove(ctx, bID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.GetByID(ctx, bID); !errors.Is(err, personrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Remove, got %v", err)
	}
	if err := repo.Create(ctx, domain.Person{
		ID:            domain.PersonID(uuid.NewString()),
		FullName:      "Bob Again",
		Email:         "bob@example.com",
		Role:          domain.RoleMember,
		CredentialRef: "cred-b2",
		CreatedAt:     t1,
		UpdatedAt:     t1,
	}); err != nil {
		t.Fatalf("Create after Remove: %v", err)
	}
	if err := repo.Remove(ctx, domain.PersonID(uuid.NewString())); err != nil {
		t.Fatalf("Remove unknown id: %v", err)
	}
}

func RunPlanRepo(t *testing.T, newRepo PlanRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Unix(1000, 0).UTC()
	aID := domain.PlanID(uuid.NewString())
	if err := repo.Create(ctx, domain.Plan{
		ID:             aID,
		Name:           "Monthly",
		DurationMonths: 1,
		PriceCents:     4999,
		Status:         domain.PlanActive,
		CreatedAt:      t0,
		UpdatedAt:      t0,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Name uniqueness is case-insensitive.
	err := repo.Create(ctx, domain.Plan{
		ID:             domain.PlanID(uuid.NewString()),
		Name:           "MONTHLY",
		DurationMonths: 1,
		PriceCents:     5999,
		Status:         domain.PlanActive,
		CreatedAt:      t0,
		UpdatedAt:      t0,
	})
	if !errors.Is(err, planrepoport.ErrNameInUse) {
		t.Fatalf("expected ErrNameInUse, got %v", err)
	}

	// List ordering is creation time ascending.
	bID := domain.PlanID(uuid.NewString())
	if err := repo.Create(ctx, domain.Plan{
		ID:             bID,
		Name:           "Quarterly",
		DurationMonths: 3,
		PriceCents:     12999,
		Status:         domain.PlanActive,
		CreatedAt:      t0.Add(time.Hour),
		UpdatedAt:      t0.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Create b: %v", err)
	}
	plans, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 2 || plans[0].ID != aID || plans[1].ID != bID {
		t.Fatalf("unexpected plan ordering: %#v", plans)
	}

	// Delete removes and reports missing plans.
	if err := repo.Delete(ctx, bID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, bID); !errors.Is(err, planrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if _, err := repo.GetByID(ctx, bID); !errors.Is(err, planrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func RunMembershipRepos(t *testing.T, newRepos MembershipReposFactory) {
	t.Helper()
	ctx := context.Background()

	repos, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Unix(5000, 0).UTC()
	trainerID := seedPerson(t, repos.Persons, domain.RoleTrainer, "trainer@example.com", t0)
	memberID := seedPerson(t, repos.Persons, domain.RoleMember, "member@example.com", t0)

	// Profile create / get / one-per-person.
	profile := domain.MembershipProfile{
		PersonID:  memberID,
		TrainerID: &trainerID,
		Status:    domain.MembershipActive,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	if err := repos.Profiles.Create(ctx, profile); err != nil {
		t.Fatalf("Create profile: %v", err)
	}
	if err := repos.Profiles.Create(ctx, profile); !errors.Is(err, profilerepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists creating profile twice, got %v", err)
	}
	got, err := repos.Profiles.GetByPersonID(ctx, memberID)
	if err != nil || got.TrainerID == nil || *got.TrainerID != trainerID {
		t.Fatalf("unexpected profile: %#v err=%v", got, err)
	}

	// Expiry counting is strict-before-today on pure dates.
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	got.EndDate = &end
	got.UpdatedAt = t0
	if err := repos.Profiles.Update(ctx, got); err != nil {
		t.Fatalf("Update profile: %v", err)
	}
	if n, err := repos.Profiles.CountExpired(ctx, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)); err != nil || n != 0 {
		t.Fatalf("CountExpired on end date: n=%d err=%v", n, err)
	}
	if n, err := repos.Profiles.CountExpired(ctx, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)); err != nil || n != 1 {
		t.Fatalf("CountExpired after end date: n=%d err=%v", n, err)
	}
	if n, err := repos.Profiles.CountByTrainer(ctx, trainerID); err != nil || n != 1 {
		t.Fatalf("CountByTrainer: n=%d err=%v", n, err)
	}

	// Request lifecycle: reject path.
	reqID := domain.RequestID(uuid.NewString())
	if err := repos.Requests.Create(ctx, domain.MembershipRequest{
		ID:        reqID,
		FullName:  "Rita Requester",
		Email:     "rita@example.com",
		Status:    domain.RequestPending,
		CreatedAt: t0,
	}); err != nil {
		t.Fatalf("Create request: %v", err)
	}
	if err := repos.Requests.Reject(ctx, reqID, t0.Add(time.Minute)); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := repos.Requests.Reject(ctx, reqID, t0.Add(2*time.Minute)); !errors.Is(err, requestrepoport.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided on second reject, got %v", err)
	}

	// Approve path: request flips and person+profile appear together.
	req2ID := domain.RequestID(uuid.NewString())
	if err := repos.Requests.Create(ctx, domain.MembershipRequest{
		ID:        req2ID,
		FullName:  "Paul Pending",
		Email:     "paul@example.com",
		Status:    domain.RequestPending,
		CreatedAt: t0,
	}); err != nil {
		t.Fatalf("Create request 2: %v", err)
	}
	newMemberID := domain.PersonID(uuid.NewString())
	person := domain.Person{
		ID:            newMemberID,
		FullName:      "Paul Pending",
		Email:         "paul@example.com",
		Role:          domain.RoleMember,
		CredentialRef: "pending-setup",
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	newProfile := domain.MembershipProfile{
		PersonID:  newMemberID,
		Status:    domain.MembershipInactive,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	if err := repos.Requests.Approve(ctx, req2ID, t0.Add(time.Minute), person, newProfile); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := repos.Persons.GetByID(ctx, newMemberID); err != nil {
		t.Fatalf("approved person missing: %v", err)
	}
	if _, err := repos.Profiles.GetByPersonID(ctx, newMemberID); err != nil {
		t.Fatalf("approved profile missing: %v", err)
	}
	r2, err := repos.Requests.GetByID(ctx, req2ID)
	if err != nil || r2.Status != domain.RequestApproved || r2.DecidedAt == nil {
		t.Fatalf("unexpected approved request: %#v err=%v", r2, err)
	}

	// Approval against a taken email fails atomically: request stays pending
	// and no person materializes.
	req3ID := domain.RequestID(uuid.NewString())
	if err := repos.Requests.Create(ctx, domain.MembershipRequest{
		ID:        req3ID,
		FullName:  "Dup Email",
		Email:     "member@example.com",
		Status:    domain.RequestPending,
		CreatedAt: t0,
	}); err != nil {
		t.Fatalf("Create request 3: %v", err)
	}
	dupID := domain.PersonID(uuid.NewString())
	dup := person
	dup.ID = dupID
	dup.Email = "member@example.com"
	dupProfile := newProfile
	dupProfile.PersonID = dupID
	if err := repos.Requests.Approve(ctx, req3ID, t0.Add(time.Minute), dup, dupProfile); !errors.Is(err, personrepoport.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	r3, err := repos.Requests.GetByID(ctx, req3ID)
	if err != nil || r3.Status != domain.RequestPending {
		t.Fatalf("request should remain pending after failed approve: %#v err=%v", r3, err)
	}
	if _, err := repos.Persons.GetByID(ctx, dupID); !errors.Is(err, personrepoport.ErrNotFound) {
		t.Fatalf("person should not exist after failed approve, got %v", err)
	}

	// List newest first with optional status filter.
	pending := domain.RequestPending
	reqs, err := repos.Requests.List(ctx, &pending)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ID != req3ID {
		t.Fatalf("unexpected pending requests: %#v", reqs)
	}

	// Attendance: one open record per member; newest-first history; open count.
	recID := domain.AttendanceID(uuid.NewString())
	if err := repos.Attendance.Create(ctx, domain.AttendanceRecord{
		ID:        recID,
		MemberID:  memberID,
		TrainerID: &trainerID,
		CheckInAt: t0,
	}); err != nil {
		t.Fatalf("Create attendance: %v", err)
	}
	open, err := repos.Attendance.GetOpenByMember(ctx, memberID)
	if err != nil || open.ID != recID {
		t.Fatalf("GetOpenByMember: %#v err=%v", open, err)
	}
	if n, err := repos.Attendance.CountOpen(ctx); err != nil || n != 1 {
		t.Fatalf("CountOpen: n=%d err=%v", n, err)
	}
	out := t0.Add(time.Hour)
	open.CheckOutAt = &out
	if err := repos.Attendance.Update(ctx, open); err != nil {
		t.Fatalf("Update attendance: %v", err)
	}
	if _, err := repos.Attendance.GetOpenByMember(ctx, memberID); !errors.Is(err, attendancerepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after check-out, got %v", err)
	}
	rec2ID := domain.AttendanceID(uuid.NewString())
	if err := repos.Attendance.Create(ctx, domain.AttendanceRecord{
		ID:        rec2ID,
		MemberID:  memberID,
		CheckInAt: t0.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("Create attendance 2: %v", err)
	}
	hist, err := repos.Attendance.ListByMember(ctx, memberID)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != rec2ID {
		t.Fatalf("unexpected history ordering: %#v", hist)
	}

	// Sessions: ordering by start, per-trainer counts, day window.
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s1 := domain.SessionID(uuid.NewString())
	s2 := domain.SessionID(uuid.NewString())
	mkSession := func(id domain.SessionID, start time.Time, status domain.SessionStatus) domain.Session {
		return domain.Session{
			ID:              id,
			TrainerID:       trainerID,
			MemberID:        memberID,
			StartAt:         start,
			DurationMinutes: 60,
			Status:          status,
			CreatedAt:       t0,
			UpdatedAt:       t0,
		}
	}
	if err := repos.Sessions.Create(ctx, mkSession(s1, day.Add(15*time.Hour), domain.SessionScheduled)); err != nil {
		t.Fatalf("Create session 1: %v", err)
	}
	if err := repos.Sessions.Create(ctx, mkSession(s2, day.Add(9*time.Hour), domain.SessionCompleted)); err != nil {
		t.Fatalf("Create session 2: %v", err)
	}
	sessions, err := repos.Sessions.ListByTrainer(ctx, trainerID)
	if err != nil {
		t.Fatalf("ListByTrainer: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != s2 || sessions[1].ID != s1 {
		t.Fatalf("unexpected session ordering: %#v", sessions)
	}
	counts, err := repos.Sessions.CountsByTrainer(ctx, trainerID)
	if err != nil || counts.Total != 2 || counts.Scheduled != 1 || counts.Completed != 1 || counts.Canceled != 0 {
		t.Fatalf("unexpected counts: %#v err=%v", counts, err)
	}
	if n, err := repos.Sessions.CountOnDay(ctx, trainerID, day); err != nil || n != 2 {
		t.Fatalf("CountOnDay: n=%d err=%v", n, err)
	}
	if n, err := repos.Sessions.CountOnDay(ctx, trainerID, day.AddDate(0, 0, 1)); err != nil || n != 0 {
		t.Fatalf("CountOnDay next day: n=%d err=%v", n, err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Actor:    domain.PersonID("person-1"),
		Method:   "POST",
		Route:    "/member/renew",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different actor never sees the record.
	other := fp
	other.Actor = domain.PersonID("person-2")
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for different actor, ok=%v err=%v", ok, err)
	}
}

func seedPerson(t *testing.T, repo personrepoport.Repository, role domain.Role, email string, at time.Time) domain.PersonID {
	t.Helper()
	id := domain.PersonID(uuid.NewString())
	if err := repo.Create(context.Background(), domain.Person{
		ID:            id,
		FullName:      "Seed " + string(role),
		Email:         email,
		Role:          role,
		CredentialRef: "cred",
		CreatedAt:     at,
		UpdatedAt:     at,
	}); err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return id
}
