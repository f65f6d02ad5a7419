package profilerepo

import (
	"context"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Repository provides access to persisted membership profiles, keyed by the
// owning person's id.
type Repository interface {
	Create(ctx context.Context, p domain.MembershipProfile) error
	Update(ctx context.Context, p domain.MembershipProfile) error

	GetByPersonID(ctx context.Context, id domain.PersonID) (domain.MembershipProfile, error)

	List(ctx context.Context) ([]domain.MembershipProfile, error)
	ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.MembershipProfile, error)

	// CountExpired counts profiles whose end date is strictly before today.
	// today is a pure calendar date; profiles without an end date never count.
	CountExpired(ctx context.Context, today time.Time) (int, error)
	CountByTrainer(ctx context.Context, trainerID domain.PersonID) (int, error)

	// AnyWithPlan reports whether any profile currently references the plan.
	AnyWithPlan(ctx context.Context, planID domain.PlanID) (bool, error)
}
