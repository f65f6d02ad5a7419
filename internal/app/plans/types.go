package plans

import "github.com/Crestline-Fitness/gym-manager-api/internal/domain"

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

type CreateInput struct {
	Name           string
	DurationMonths int
	PriceCents     int64
	Description    *string
	Status         *domain.PlanStatus
}

// UpdateInput is a partial update. Name, DurationMonths, PriceCents, and
// Status cannot be null; Description may be cleared.
type UpdateInput struct {
	Name           Optional[string]
	DurationMonths Optional[int]
	PriceCents     Optional[int64]
	Description    Optional[string]
	Status         Optional[domain.PlanStatus]
}

// UpdateResult distinguishes a write that changed nothing (data already
// identical) from one that applied changes; both are successful outcomes.
type UpdateResult struct {
	Plan      domain.Plan
	Unchanged bool
}
