package domain

import "time"

// SessionStatus is the lifecycle state of a scheduled training session.
// Only scheduled sessions may be edited; completed and canceled are terminal.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCanceled  SessionStatus = "canceled"
)

// Session is a trainer-scheduled appointment with an assigned member.
type Session struct {
	ID        SessionID
	TrainerID PersonID
	MemberID  PersonID

	StartAt         time.Time
	DurationMinutes int

	Status SessionStatus
	Notes  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
