package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/clock"
	memprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/profilerepo"
	memsessionrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/sessionrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

const (
	trainerID = domain.PersonID("trainer-1")
	memberID  = domain.PersonID("member-1")
)

type fixture struct {
	svc      *Service
	profiles *memprofilerepo.Repo
	clk      *memclock.ManualClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	profiles := memprofilerepo.NewRepo()
	clk := memclock.NewManualClock(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))

	tid := trainerID
	now := clk.Now()
	if err := profiles.Create(context.Background(), domain.MembershipProfile{
		PersonID:  memberID,
		TrainerID: &tid,
		Status:    domain.MembershipActive,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed profile err=%v", err)
	}

	return fixture{
		svc:      NewService(memsessionrepo.NewRepo(), profiles, clk),
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

func TestService_Schedule_Defaults(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	startAt := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	sess, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID: memberID,
		StartAt:  startAt,
	})
	if err != nil {
		t.Fatalf("Schedule err=%v", err)
	}
	if sess.Status != domain.SessionScheduled {
		t.Fatalf("status=%q", sess.Status)
	}
	if sess.DurationMinutes != 60 {
		t.Fatalf("duration=%d, want the 60 minute default", sess.DurationMinutes)
	}
	if !sess.StartAt.Equal(startAt) {
		t.Fatalf("startAt=%v", sess.StartAt)
	}
}

func TestService_Schedule_RequiresAssignedActiveMember(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	startAt := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	_, err := fix.svc.Schedule(context.Background(), domain.PersonID("other-trainer"), ScheduleInput{
		MemberID: memberID,
		StartAt:  startAt,
	})
	wantAppErr(t, err, 403, "MEMBER_NOT_ASSIGNED")

	// An inactive member cannot be booked even by their own trainer.
	profile, err := fix.profiles.GetByPersonID(context.Background(), memberID)
	if err != nil {
		t.Fatalf("GetByPersonID err=%v", err)
	}
	profile.Status = domain.MembershipInactive
	if err := fix.profiles.Update(context.Background(), profile); err != nil {
		t.Fatalf("Update err=%v", err)
	}
	_, err = fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID: memberID,
		StartAt:  startAt,
	})
	wantAppErr(t, err, 403, "MEMBER_NOT_ASSIGNED")
}

func TestService_Schedule_Validation(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	_, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{MemberID: memberID})
	wantAppErr(t, err, 422, "VALIDATION_ERROR")

	bad := -30
	_, err = fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID:        memberID,
		StartAt:         time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		DurationMinutes: &bad,
	})
	wantAppErr(t, err, 422, "VALIDATION_ERROR")
}

func TestService_SetStatus_TerminalOnce(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	sess, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID: memberID,
		StartAt:  time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Schedule err=%v", err)
	}

	got, err := fix.svc.SetStatus(context.Background(), trainerID, sess.ID, domain.SessionCompleted)
	if err != nil {
		t.Fatalf("SetStatus err=%v", err)
	}
	if got.Status != domain.SessionCompleted {
		t.Fatalf("status=%q", got.Status)
	}

	// Completed is terminal: no second transition, no edits.
	_, err = fix.svc.SetStatus(context.Background(), trainerID, sess.ID, domain.SessionCanceled)
	wantAppErr(t, err, 409, "SESSION_NOT_EDITABLE")

	_, err = fix.svc.Update(context.Background(), trainerID, sess.ID, UpdateInput{
		StartAt: time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC),
	})
	wantAppErr(t, err, 409, "SESSION_NOT_EDITABLE")
}

func TestService_SetStatus_RejectsScheduledTarget(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	sess, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID: memberID,
		StartAt:  time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Schedule err=%v", err)
	}
	_, err = fix.svc.SetStatus(context.Background(), trainerID, sess.ID, domain.SessionScheduled)
	wantAppErr(t, err, 422, "VALIDATION_ERROR")
}

func TestService_Update_OwnershipAndReschedule(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	sess, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
		MemberID: memberID,
		StartAt:  time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Schedule err=%v", err)
	}

	_, err = fix.svc.Update(context.Background(), domain.PersonID("other-trainer"), sess.ID, UpdateInput{
		StartAt: time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC),
	})
	wantAppErr(t, err, 403, "FORBIDDEN")

	newStart := time.Date(2024, time.March, 6, 14, 0, 0, 0, time.UTC)
	dur := 90
	got, err := fix.svc.Update(context.Background(), trainerID, sess.ID, UpdateInput{
		StartAt:         newStart,
		DurationMinutes: &dur,
	})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if !got.StartAt.Equal(newStart) || got.DurationMinutes != 90 {
		t.Fatalf("got=%+v", got)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	_, err := fix.svc.Update(context.Background(), trainerID, domain.SessionID("missing"), UpdateInput{
		StartAt: time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC),
	})
	wantAppErr(t, err, 404, "SESSION_NOT_FOUND")
}

func TestService_ListByTrainer_Chronological(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	later := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{later, earlier} {
		if _, err := fix.svc.Schedule(context.Background(), trainerID, ScheduleInput{
			MemberID: memberID,
			StartAt:  at,
		}); err != nil {
			t.Fatalf("Schedule err=%v", err)
		}
	}

	list, err := fix.svc.ListByTrainer(context.Background(), trainerID)
	if err != nil {
		t.Fatalf("ListByTrainer err=%v", err)
	}
	if len(list) != 2 || !list[0].StartAt.Equal(earlier) {
		t.Fatalf("list=%+v, want chronological order", list)
	}
}
