package domain

import "time"

// PlanStatus marks whether a plan is offered for new subscriptions.
type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanInactive PlanStatus = "inactive"
)

// Plan is a purchasable membership tier with a fixed duration and price.
type Plan struct {
	ID             PlanID
	Name           string
	DurationMonths int
	// PriceCents is the plan price in integer cents; never negative.
	PriceCents  int64
	Description *string
	Status      PlanStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
