package planrepo

import (
	"context"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Repository provides access to persisted membership plans.
//
// List returns plans ordered by creation time ascending so the catalog is
// stable across calls.
type Repository interface {
	Create(ctx context.Context, p domain.Plan) error
	Update(ctx context.Context, p domain.Plan) error
	Delete(ctx context.Context, id domain.PlanID) error

	GetByID(ctx context.Context, id domain.PlanID) (domain.Plan, error)
	List(ctx context.Context) ([]domain.Plan, error)
}
