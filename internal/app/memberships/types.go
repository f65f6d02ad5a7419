package memberships

import (
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// AssignInput updates the trainer/plan assignment. Each field is tri-state:
// unspecified leaves the assignment alone, null clears it, a value sets it.
type AssignInput struct {
	Trainer Optional[domain.PersonID]
	Plan    Optional[domain.PlanID]
}

type ProvisionInput struct {
	FullName    string
	Email       string
	Phone       *string
	HealthGoals *string
}

// RenewalResult is returned for caller confirmation and display.
type RenewalResult struct {
	PlanID     domain.PlanID
	NewEndDate time.Time
}

// MemberSummary is the joined read model for member listings: person fields,
// resolved trainer/plan names, and the derived expiry flag.
type MemberSummary struct {
	MemberID domain.PersonID
	FullName string
	Email    string
	Phone    *string

	TrainerID   *domain.PersonID
	TrainerName *string
	PlanID      *domain.PlanID
	PlanName    *string

	StartDate *time.Time
	EndDate   *time.Time

	Status      domain.MembershipStatus
	HealthGoals *string

	// IsExpired is derived from EndDate at read time and never persisted.
	IsExpired bool

	CreatedAt time.Time
}

// AssignedMember is the trainer-facing roster entry.
type AssignedMember struct {
	MemberID    domain.PersonID
	FullName    string
	Status      domain.MembershipStatus
	IsCheckedIn bool
}
