package requestrepo

import (
	"context"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Repository provides access to persisted membership requests.
//
// Approve and Reject enforce the decide-exactly-once rule at the storage
// layer: they succeed only while the request is still pending and return
// ErrAlreadyDecided otherwise, regardless of what the caller read beforehand.
type Repository interface {
	Create(ctx context.Context, r domain.MembershipRequest) error

	GetByID(ctx context.Context, id domain.RequestID) (domain.MembershipRequest, error)

	// List returns requests newest first, optionally filtered by status.
	List(ctx context.Context, status *domain.RequestStatus) ([]domain.MembershipRequest, error)

	// Reject marks a pending request rejected. No further side effects.
	Reject(ctx context.Context, id domain.RequestID, decidedAt time.Time) error

	// Approve marks a pending request approved and creates the given person
	// and membership profile as one atomic unit: either all three writes land
	// or none do. Person-level uniqueness errors (personrepo.ErrEmailInUse)
	// propagate unchanged and leave the request pending.
	Approve(ctx context.Context, id domain.RequestID, decidedAt time.Time, person domain.Person, profile domain.MembershipProfile) error
}
