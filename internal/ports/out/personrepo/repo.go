package personrepo

import (
	"context"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Repository provides access to persisted person records.
//
// Result ordering expectations:
//   - ListByRole returns the newest record first (CreatedAt descending, ID as
//     tiebreak) so member listings surface recent signups on top.
type Repository interface {
	Create(ctx context.Context, p domain.Person) error
	Update(ctx context.Context, p domain.Person) error

	// Remove deletes a person record, releasing its email for reuse.
	// Removing an unknown id is a no-op. Callers use it to compensate a
	// partially applied provision.
	Remove(ctx context.Context, id domain.PersonID) error

	GetByID(ctx context.Context, id domain.PersonID) (domain.Person, error)
	GetByEmail(ctx context.Context, email string) (domain.Person, error)

	ListByRole(ctx context.Context, role domain.Role) ([]domain.Person, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}
