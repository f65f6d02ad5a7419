package dashboard

import (
	"context"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

// Stats are the admin dashboard counts. Each is an independent point-in-time
// read with no cross-consistency guarantee between them; a member counted as
// expired may simultaneously be checked in.
type Stats struct {
	TotalMembers       int
	ActiveTrainers     int
	ExpiredMemberships int
	CheckedInNow       int
}

// TrainerStats are the per-trainer dashboard counts.
type TrainerStats struct {
	AssignedMembers   int
	TotalSessions     int
	ScheduledSessions int
	CompletedSessions int
	CanceledSessions  int
	TodaySessions     int
}

// Service aggregates read-side counts. Everything is recomputed per request;
// nothing is cached.
type Service struct {
	persons    personrepo.Repository
	profiles   profilerepo.Repository
	attendance attendancerepo.Repository
	sessions   sessionrepo.Repository
	clk        clockport.Clock
}

func NewService(
	persons personrepo.Repository,
	profiles profilerepo.Repository,
	attendance attendancerepo.Repository,
	sessions sessionrepo.Repository,
	clk clockport.Clock,
) *Service {
	return &Service{
		persons:    persons,
		profiles:   profiles,
		attendance: attendance,
		sessions:   sessions,
		clk:        clk,
	}
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	var err error

	if out.TotalMembers, err = s.persons.CountByRole(ctx, domain.RoleMember); err != nil {
		return Stats{}, err
	}
	if out.ActiveTrainers, err = s.persons.CountByRole(ctx, domain.RoleTrainer); err != nil {
		return Stats{}, err
	}
	today := domain.DateOnly(s.clk.Now())
	if out.ExpiredMemberships, err = s.profiles.CountExpired(ctx, today); err != nil {
		return Stats{}, err
	}
	if out.CheckedInNow, err = s.attendance.CountOpen(ctx); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (s *Service) TrainerStats(ctx context.Context, trainerID domain.PersonID) (TrainerStats, error) {
	var out TrainerStats
	var err error

	if out.AssignedMembers, err = s.profiles.CountByTrainer(ctx, trainerID); err != nil {
		return TrainerStats{}, err
	}
	counts, err := s.sessions.CountsByTrainer(ctx, trainerID)
	if err != nil {
		return TrainerStats{}, err
	}
	out.TotalSessions = counts.Total
	out.ScheduledSessions = counts.Scheduled
	out.CompletedSessions = counts.Completed
	out.CanceledSessions = counts.Canceled

	today := domain.DateOnly(s.clk.Now())
	if out.TodaySessions, err = s.sessions.CountOnDay(ctx, trainerID, today); err != nil {
		return TrainerStats{}, err
	}
	return out, nil
}
