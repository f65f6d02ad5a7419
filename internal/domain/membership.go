package domain

import "time"

// MembershipStatus is the administratively set status flag on a profile.
//
// It is deliberately independent of the date-derived expiry state: status may
// say Active while IsExpired reports true (and vice versa). The flag records
// what an admin last decided; expiry is always recomputed from the end date at
// read time. Renewal is the only operation that moves both together.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "Active"
	MembershipInactive MembershipStatus = "Inactive"
)

// MembershipProfile is the one-to-one membership state for a person with role
// member. Dates are pure calendar dates carried at UTC midnight.
type MembershipProfile struct {
	PersonID PersonID

	TrainerID *PersonID
	PlanID    *PlanID

	StartDate *time.Time
	EndDate   *time.Time

	Status      MembershipStatus
	HealthGoals *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the membership end date has passed as of today.
// A profile without an end date is never expired. This is a read-time
// projection and is never persisted.
func (p MembershipProfile) IsExpired(today time.Time) bool {
	if p.EndDate == nil {
		return false
	}
	return DateOnly(*p.EndDate).Before(DateOnly(today))
}
