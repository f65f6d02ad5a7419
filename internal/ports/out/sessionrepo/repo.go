package sessionrepo

import (
	"context"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// StatusCounts is a per-trainer breakdown of session records by status.
type StatusCounts struct {
	Total     int
	Scheduled int
	Completed int
	Canceled  int
}

// Repository provides access to persisted training sessions.
//
// Result ordering expectations:
//   - ListByTrainer and ListByMember return sessions ordered by StartAt
//     ascending (ID as tiebreak) so upcoming appointments come first.
type Repository interface {
	Create(ctx context.Context, s domain.Session) error
	Update(ctx context.Context, s domain.Session) error

	GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error)

	ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.Session, error)
	ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.Session, error)

	CountsByTrainer(ctx context.Context, trainerID domain.PersonID) (StatusCounts, error)

	// CountOnDay counts the trainer's sessions whose start falls on the given
	// calendar date (UTC).
	CountOnDay(ctx context.Context, trainerID domain.PersonID, day time.Time) (int, error)
}
