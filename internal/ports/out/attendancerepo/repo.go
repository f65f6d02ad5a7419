package attendancerepo

import (
	"context"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Repository provides access to persisted attendance records.
type Repository interface {
	Create(ctx context.Context, r domain.AttendanceRecord) error
	Update(ctx context.Context, r domain.AttendanceRecord) error

	// GetOpenByMember returns the member's open record (CheckOutAt null).
	// At most one open record exists per member at a time.
	GetOpenByMember(ctx context.Context, memberID domain.PersonID) (domain.AttendanceRecord, error)

	// ListByMember returns the member's records newest check-in first.
	ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.AttendanceRecord, error)

	// CountOpen counts records with no check-out across all members.
	CountOpen(ctx context.Context) (int, error)
}
