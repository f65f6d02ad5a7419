package domain

import "time"

// AttendanceRecord tracks a member's visit. The record is open while
// CheckOutAt is nil and closed once a check-out is recorded.
type AttendanceRecord struct {
	ID        AttendanceID
	MemberID  PersonID
	TrainerID *PersonID

	CheckInAt  time.Time
	CheckOutAt *time.Time
	Notes      *string
}

// Open reports whether the visit has not been checked out yet.
func (r AttendanceRecord) Open() bool { return r.CheckOutAt == nil }
