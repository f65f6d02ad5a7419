package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

const defaultDurationMinutes = 60

type ScheduleInput struct {
	MemberID        domain.PersonID
	StartAt         time.Time
	DurationMinutes *int
	Notes           *string
}

type UpdateInput struct {
	StartAt         time.Time
	DurationMinutes *int
	Notes           *string
}

type Service struct {
	repo     sessionrepo.Repository
	profiles profilerepo.Repository
	clk      clockport.Clock

	newSessionID func() domain.SessionID
}

func NewService(repo sessionrepo.Repository, profiles profilerepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		clk:      clk,
		newSessionID: func() domain.SessionID {
			return domain.SessionID(uuid.NewString())
		},
	}
}

// Schedule books a session for one of the trainer's own members. The member
// must be assigned to the trainer and administratively Active.
func (s *Service) Schedule(ctx context.Context, trainerID domain.PersonID, in ScheduleInput) (domain.Session, error) {
	if in.MemberID == "" {
		return domain.Session{}, validationErr("memberId", "must be provided")
	}
	if in.StartAt.IsZero() {
		return domain.Session{}, validationErr("startAt", "must be provided")
	}
	if err := s.requireAssignedActive(ctx, trainerID, in.MemberID); err != nil {
		return domain.Session{}, err
	}

	duration := defaultDurationMinutes
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return domain.Session{}, validationErr("durationMinutes", "must be positive")
		}
		duration = *in.DurationMinutes
	}

	now := s.clk.Now()
	sess := domain.Session{
		ID:              s.newSessionID(),
		TrainerID:       trainerID,
		MemberID:        in.MemberID,
		StartAt:         in.StartAt.UTC(),
		DurationMinutes: duration,
		Status:          domain.SessionScheduled,
		Notes:           cloneStringPtr(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Update reschedules a session the trainer owns. Only scheduled sessions can
// be edited; completed and canceled ones are terminal.
func (s *Service) Update(ctx context.Context, trainerID domain.PersonID, id domain.SessionID, in UpdateInput) (domain.Session, error) {
	sess, err := s.getOwned(ctx, trainerID, id)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Status != domain.SessionScheduled {
		return domain.Session{}, notEditable(sess.Status)
	}
	if in.StartAt.IsZero() {
		return domain.Session{}, validationErr("startAt", "must be provided")
	}

	sess.StartAt = in.StartAt.UTC()
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return domain.Session{}, validationErr("durationMinutes", "must be positive")
		}
		sess.DurationMinutes = *in.DurationMinutes
	}
	sess.Notes = cloneStringPtr(in.Notes)
	sess.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// SetStatus marks a scheduled session completed or canceled, exactly once.
func (s *Service) SetStatus(ctx context.Context, trainerID domain.PersonID, id domain.SessionID, status domain.SessionStatus) (domain.Session, error) {
	if status != domain.SessionCompleted && status != domain.SessionCanceled {
		return domain.Session{}, validationErr("status", "must be completed or canceled")
	}
	sess, err := s.getOwned(ctx, trainerID, id)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Status != domain.SessionScheduled {
		return domain.Session{}, notEditable(sess.Status)
	}

	sess.Status = status
	sess.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (s *Service) ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.Session, error) {
	return s.repo.ListByTrainer(ctx, trainerID)
}

func (s *Service) ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.Session, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *Service) requireAssignedActive(ctx context.Context, trainerID, memberID domain.PersonID) error {
	profile, err := s.profiles.GetByPersonID(ctx, memberID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return notAssigned()
		}
		return err
	}
	if profile.TrainerID == nil || *profile.TrainerID != trainerID || profile.Status != domain.MembershipActive {
		return notAssigned()
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, trainerID domain.PersonID, id domain.SessionID) (domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sessionrepo.ErrNotFound) {
			return domain.Session{}, &apperr.Error{
				Status:  404,
				Code:    "SESSION_NOT_FOUND",
				Message: "No session exists with that id.",
			}
		}
		return domain.Session{}, err
	}
	if sess.TrainerID != trainerID {
		// Another trainer's session reads as forbidden, not missing, matching
		// the observed system.
		return domain.Session{}, &apperr.Error{
			Status:  403,
			Code:    "FORBIDDEN",
			Message: "The session belongs to another trainer.",
		}
	}
	return sess, nil
}

func notAssigned() *apperr.Error {
	return &apperr.Error{
		Status:  403,
		Code:    "MEMBER_NOT_ASSIGNED",
		Message: "The member is not assigned to this trainer or is inactive.",
	}
}

func notEditable(status domain.SessionStatus) *apperr.Error {
	return &apperr.Error{
		Status:  409,
		Code:    "SESSION_NOT_EDITABLE",
		Message: "Only scheduled sessions can be changed.",
		Details: map[string]any{"status": string(status)},
	}
}

func validationErr(field, msg string) *apperr.Error {
	return &apperr.Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: msg},
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
