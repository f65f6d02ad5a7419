package attendance

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
)

type Service struct {
	repo     attendancerepo.Repository
	profiles profilerepo.Repository
	clk      clockport.Clock

	newAttendanceID func() domain.AttendanceID
}

func NewService(repo attendancerepo.Repository, profiles profilerepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		clk:      clk,
		newAttendanceID: func() domain.AttendanceID {
			return domain.AttendanceID(uuid.NewString())
		},
	}
}

// CheckIn opens an attendance record for one of the trainer's assigned
// members. A member can hold at most one open record at a time.
func (s *Service) CheckIn(ctx context.Context, trainerID, memberID domain.PersonID) (domain.AttendanceRecord, error) {
	if memberID == "" {
		return domain.AttendanceRecord{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid memberId",
			Details: map[string]any{"memberId": "must be provided"},
		}
	}
	if err := s.requireAssigned(ctx, trainerID, memberID); err != nil {
		return domain.AttendanceRecord{}, err
	}

	if _, err := s.repo.GetOpenByMember(ctx, memberID); err == nil {
		return domain.AttendanceRecord{}, &apperr.Error{
			Status:  409,
			Code:    "ALREADY_CHECKED_IN",
			Message: "The member already has an open check-in.",
		}
	} else if !errors.Is(err, attendancerepo.ErrNotFound) {
		return domain.AttendanceRecord{}, err
	}

	rec := domain.AttendanceRecord{
		ID:        s.newAttendanceID(),
		MemberID:  memberID,
		TrainerID: &trainerID,
		CheckInAt: s.clk.Now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.AttendanceRecord{}, err
	}
	return rec, nil
}

// CheckOut closes the member's open record, attaching optional notes.
func (s *Service) CheckOut(ctx context.Context, trainerID, memberID domain.PersonID, notes *string) (domain.AttendanceRecord, error) {
	if err := s.requireAssigned(ctx, trainerID, memberID); err != nil {
		return domain.AttendanceRecord{}, err
	}

	rec, err := s.repo.GetOpenByMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, attendancerepo.ErrNotFound) {
			return domain.AttendanceRecord{}, &apperr.Error{
				Status:  409,
				Code:    "NO_OPEN_CHECK_IN",
				Message: "The member has no open check-in to close.",
			}
		}
		return domain.AttendanceRecord{}, err
	}

	now := s.clk.Now()
	rec.CheckOutAt = &now
	rec.Notes = cloneStringPtr(notes)
	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.AttendanceRecord{}, err
	}
	return rec, nil
}

// History returns the member's attendance records, newest check-in first.
func (s *Service) History(ctx context.Context, memberID domain.PersonID) ([]domain.AttendanceRecord, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *Service) requireAssigned(ctx context.Context, trainerID, memberID domain.PersonID) error {
	profile, err := s.profiles.GetByPersonID(ctx, memberID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return notAssigned()
		}
		return err
	}
	if profile.TrainerID == nil || *profile.TrainerID != trainerID {
		return notAssigned()
	}
	return nil
}

func notAssigned() *apperr.Error {
	return &apperr.Error{
		Status:  403,
		Code:    "MEMBER_NOT_ASSIGNED",
		Message: "The member is not assigned to this trainer.",
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
